package describe

import (
	"encoding/json"
	"github.com/MuhamedUsman/letdrop/internal/config"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type capturedRequest struct {
	path, auth string
	Model      string `json:"model"`
	Messages   []struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL struct {
				URL    string `json:"url"`
				Detail string `json:"detail"`
			} `json:"image_url"`
		} `json:"content"`
	} `json:"messages"`
}

// completionServer returns a test endpoint answering every chat
// completion with body, recording the last request into captured.
func completionServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.path = r.URL.Path
			captured.auth = r.Header.Get("Authorization")
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decoding completion request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, srv *httptest.Server, model string) *Client {
	t.Helper()
	cfg := config.DescribeConfig{
		Model:          model,
		BaseURL:        srv.URL + "/v1/",
		TimeoutSeconds: 5,
	}
	return New(cfg, option.WithMaxRetries(0))
}

const captionResponse = `{
	"id": "chatcmpl-test",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "test-model",
	"choices": [
		{"index": 0, "finish_reason": "stop",
		 "message": {"role": "assistant", "content": "  A red square on a white field.  "}}
	]
}`

func TestDescribe(t *testing.T) {
	t.Setenv("LETDROP_API_KEY", "test-key")
	dir := t.TempDir()
	path := filepath.Join(dir, "pixel.png")
	if err := os.WriteFile(path, []byte("png bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	var captured capturedRequest
	srv := completionServer(t, http.StatusOK, captionResponse, &captured)
	c := testClient(t, srv, "test-model")
	assert.True(t, c.Available(), "a key is set, describing must be available")

	caption, err := c.Describe(t.Context(), "Describe this image.", File{
		Name: "pixel.png",
		MIME: "image/png",
		Path: path,
	})
	assert.NoError(t, err, "expected the describe call to succeed")
	assert.Equal(t, "A red square on a white field.", caption, "caption must be whitespace trimmed")

	assert.True(t, strings.HasSuffix(captured.path, "/chat/completions"), "unexpected endpoint path %q", captured.path)
	assert.Equal(t, "Bearer test-key", captured.auth, "api key must travel as a bearer token")
	assert.Equal(t, "test-model", captured.Model, "configured model must be requested")
	if assert.Len(t, captured.Messages, 1, "expected a single user message") {
		parts := captured.Messages[0].Content
		if assert.Len(t, parts, 2, "expected a text part and an image part") {
			assert.Equal(t, "Describe this image.", parts[0].Text)
			assert.Equal(t, DataURI("image/png", []byte("png bytes")), parts[1].ImageURL.URL,
				"file content must travel as a base64 data uri")
			assert.Empty(t, parts[1].ImageURL.Detail, "detail must stay unset unless low detail is on")
		}
	}
}

func TestDescribeLowDetail(t *testing.T) {
	t.Setenv("LETDROP_API_KEY", "test-key")
	dir := t.TempDir()
	path := filepath.Join(dir, "pixel.png")
	if err := os.WriteFile(path, []byte("png bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	var captured capturedRequest
	srv := completionServer(t, http.StatusOK, captionResponse, &captured)
	cfg := config.DescribeConfig{
		Model:          "test-model",
		BaseURL:        srv.URL + "/v1/",
		TimeoutSeconds: 5,
		LowDetail:      true,
	}
	c := New(cfg, option.WithMaxRetries(0))

	_, err := c.Describe(t.Context(), "Describe this image.", File{
		Name: "pixel.png",
		MIME: "image/png",
		Path: path,
	})
	assert.NoError(t, err, "expected the describe call to succeed")
	if assert.Len(t, captured.Messages, 1) && assert.Len(t, captured.Messages[0].Content, 2) {
		assert.Equal(t, "low", captured.Messages[0].Content[1].ImageURL.Detail,
			"low detail preference must reach the request")
	}
}

func TestDescribeWithoutKey(t *testing.T) {
	t.Setenv("LETDROP_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	srv := completionServer(t, http.StatusOK, captionResponse, nil)
	c := testClient(t, srv, "test-model")
	assert.False(t, c.Available(), "no key, describing must report unavailable")

	_, err := c.Describe(t.Context(), "Describe this image.", File{Name: "x.png", Path: "x.png"})
	assert.ErrorIs(t, err, ErrNoAPIKey, "expected the missing key to surface")
	var perr *ProviderError
	if assert.ErrorAs(t, err, &perr, "expected a *ProviderError") {
		assert.Equal(t, "auth", perr.Op)
	}
}

func TestDescribeProviderFailure(t *testing.T) {
	t.Setenv("LETDROP_API_KEY", "test-key")
	dir := t.TempDir()
	path := filepath.Join(dir, "pixel.png")
	if err := os.WriteFile(path, []byte("png bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	tt := []struct {
		name, body string
		status     int
	}{
		{"endpoint rejects the call", `{"error": {"message": "bad request", "type": "invalid_request_error"}}`, http.StatusBadRequest},
		{"empty choices", `{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`, http.StatusOK},
		{"blank caption", `{"id": "chatcmpl-test", "object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "   "}}]}`, http.StatusOK},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			srv := completionServer(t, tc.status, tc.body, nil)
			c := testClient(t, srv, "test-model")
			_, err := c.Describe(t.Context(), "Describe this image.", File{Name: "pixel.png", MIME: "image/png", Path: path})
			var perr *ProviderError
			if assert.ErrorAs(t, err, &perr, "expected a *ProviderError") {
				assert.Equal(t, "completion", perr.Op)
			}
		})
	}
}

func TestDescribeUnreadableFile(t *testing.T) {
	t.Setenv("LETDROP_API_KEY", "test-key")
	srv := completionServer(t, http.StatusOK, captionResponse, nil)
	c := testClient(t, srv, "test-model")

	_, err := c.Describe(t.Context(), "Describe this image.", File{
		Name: "gone.png",
		MIME: "image/png",
		Path: filepath.Join(t.TempDir(), "gone.png"),
	})
	assert.ErrorIs(t, err, fs.ErrNotExist, "expected the read error to be preserved")
	var perr *ProviderError
	if assert.ErrorAs(t, err, &perr, "expected a *ProviderError") {
		assert.Equal(t, "read", perr.Op)
	}
}

func TestDataURI(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,YWJj", DataURI("image/png", []byte("abc")))
	assert.Equal(t, "data:application/octet-stream;base64,YWJj", DataURI("", []byte("abc")),
		"unknown media types fall back to octet-stream")
}
