package tui

import (
	"github.com/MuhamedUsman/letdrop/internal/config"
	"github.com/stretchr/testify/assert"
	"testing"
)

func testPreferenceModel() preferenceModel {
	cfg := config.Config{
		Personal: config.PersonalConfig{Username: "TestUser"},
		Intake: config.IntakeConfig{
			MaxFiles:      3,
			MaxSizeBytes:  10 << 20,
			AcceptedTypes: []string{".pdf", "image/*"},
		},
		Describe: config.DescribeConfig{
			Model:          "test-model",
			Prompt:         "Describe this image.",
			TimeoutSeconds: 60,
		},
	}
	return preferenceModel{config: &cfg, ques: populatePreferencesFromConfig(cfg)}
}

func setQueInput(t *testing.T, m *preferenceModel, key preferenceKey, val string) {
	t.Helper()
	for i := range m.ques {
		if m.ques[i].title == key {
			m.ques[i].input = val
			return
		}
	}
	t.Fatalf("no que titled %s", key.string())
}

func TestParseAcceptedTypes(t *testing.T) {
	got := parseAcceptedTypes(" .pdf, image/* ,, application/pdf ")
	assert.Equal(t, []string{".pdf", "image/*", "application/pdf"}, got, "split on commas, trimmed, empties dropped")
}

func TestMalformedTypeRule(t *testing.T) {
	assert.Empty(t, malformedTypeRule([]string{".pdf", "image/*", "application/pdf"}))
	assert.Empty(t, malformedTypeRule(nil))
	assert.Equal(t, "pdf", malformedTypeRule([]string{".png", "pdf", "image/*"}), "a bare word can never match a file")
}

func TestBuildConfigAcceptedTypes(t *testing.T) {
	t.Run("malformed rule rejected", func(t *testing.T) {
		m := testPreferenceModel()
		setQueInput(t, &m, acceptedTypes, ".png, pdf")
		_, complaint := m.buildConfig()
		assert.NotEmpty(t, complaint, "a rule that can never match must not save silently")
		assert.Contains(t, complaint, "“pdf”", "the complaint must name the bad entry")
	})

	t.Run("well formed rules kept", func(t *testing.T) {
		m := testPreferenceModel()
		setQueInput(t, &m, acceptedTypes, ".png, image/*")
		cfg, complaint := m.buildConfig()
		assert.Empty(t, complaint)
		assert.Equal(t, []string{".png", "image/*"}, cfg.Intake.AcceptedTypes)
	})

	t.Run("empty accepts everything", func(t *testing.T) {
		m := testPreferenceModel()
		setQueInput(t, &m, acceptedTypes, "")
		cfg, complaint := m.buildConfig()
		assert.Empty(t, complaint)
		assert.Empty(t, cfg.Intake.AcceptedTypes)
	})
}

func TestStagingQuesNoteNextLaunch(t *testing.T) {
	for _, q := range testPreferenceModel().ques {
		if q.pSec == staging {
			assert.Contains(t, q.desc, "next launch", "%s binds at engine construction, its desc must say so", q.title.string())
		}
	}
}
