package intake

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestAccepts(t *testing.T) {
	tt := []struct {
		testName string
		rules    []string
		name     string
		mime     string
		want     bool
	}{
		{"no rules accepts anything", nil, "anything.xyz", "application/x-unknown", true},
		{"extension match", []string{".pdf"}, "report.pdf", "application/pdf", true},
		{"extension match is case-insensitive", []string{".pdf"}, "REPORT.PDF", "application/pdf", true},
		{"uppercase rule still matches", []string{".PDF"}, "report.pdf", "application/pdf", true},
		{"extension mismatch", []string{".pdf"}, "report.docx", "application/msword", false},
		{"extension must be a suffix", []string{".tar"}, "notes.tar.gz", "application/gzip", false},
		{"wildcard matches the base type", []string{"image/*"}, "pic", "image/png", true},
		{"wildcard rejects other bases", []string{"image/*"}, "clip", "video/mp4", false},
		{"wildcard honors the slash boundary", []string{"image/*"}, "imagefile", "imagery/png", false},
		{"exact media type", []string{"text/plain"}, "notes", "text/plain", true},
		{"exact media type is case-insensitive", []string{"text/plain"}, "notes", "Text/Plain", true},
		{"exact mismatch", []string{"text/plain"}, "notes", "text/html", false},
		{"empty declared type fails media rules", []string{"image/*"}, "mystery", "", false},
		{"empty declared type can pass extension rules", []string{".png"}, "shot.png", "", true},
		{"any rule matching is enough", []string{".pdf", "image/*", "text/plain"}, "cat.jpeg", "image/jpeg", true},
		{"all rules missing rejects", []string{".pdf", "image/*"}, "song.mp3", "audio/mpeg", false},
	}

	for _, tc := range tt {
		t.Run(tc.testName, func(t *testing.T) {
			c := Config{AcceptedTypes: tc.rules}
			assert.Equal(t, tc.want, c.Accepts(tc.name, tc.mime))
		})
	}
}
