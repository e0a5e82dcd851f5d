// Package describe turns a staged file into a one paragraph caption by
// sending it to an OpenAI compatible chat completions endpoint. The
// file travels inline as a base64 data URI, nothing is uploaded or
// stored provider side beyond the completion call itself.
package describe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"github.com/MuhamedUsman/letdrop/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"os"
	"strings"
	"time"
)

// ErrNoAPIKey signals that neither LETDROP_API_KEY nor OPENAI_API_KEY
// is set, describing is unavailable until one is.
var ErrNoAPIKey = errors.New("no api key configured, set LETDROP_API_KEY or OPENAI_API_KEY")

// ProviderError wraps a failure in the describe flow with the step it
// happened at.
type ProviderError struct {
	Op  string // "auth", "read" or "completion"
	Err error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("describe %s: %v", e.Op, e.Err) }

func (e *ProviderError) Unwrap() error { return e.Err }

// File is the staged file to describe, MIME may be empty for unknown
// extensions.
type File struct {
	Name string
	MIME string
	Path string
}

// Client issues describe calls against a single configured model.
type Client struct {
	ai        openai.Client
	model     string
	hasKey    bool
	lowDetail bool
}

// New builds a Client from the describe section of the user's config.
// BaseURL redirects calls to any OpenAI compatible endpoint, extra
// request options are appended last so they win.
func New(cfg config.DescribeConfig, opts ...option.RequestOption) *Client {
	key := apiKey()
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	ropts := []option.RequestOption{option.WithRequestTimeout(timeout)}
	if key != "" {
		ropts = append(ropts, option.WithAPIKey(key))
	}
	if cfg.BaseURL != "" {
		ropts = append(ropts, option.WithBaseURL(cfg.BaseURL))
	}
	ropts = append(ropts, opts...)
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		ai:        openai.NewClient(ropts...),
		model:     model,
		hasKey:    key != "",
		lowDetail: cfg.LowDetail,
	}
}

// Available reports whether an api key was found at construction.
func (c *Client) Available() bool { return c.hasKey }

// Describe sends prompt plus the file's content as a data URI and
// returns the model's caption.
//
// Parameters:
//   - ctx: cancels the call midway, derive it from the shutdown context
//   - prompt: instruction for the model, e.g. the configured one
//   - f: staged file to read and describe
//
// Returns:
//   - string: the caption, whitespace trimmed
//   - error: a *ProviderError naming the failed step
func (c *Client) Describe(ctx context.Context, prompt string, f File) (string, error) {
	if !c.hasKey {
		return "", &ProviderError{Op: "auth", Err: ErrNoAPIKey}
	}
	payload, err := os.ReadFile(f.Path)
	if err != nil {
		return "", &ProviderError{Op: "read", Err: err}
	}
	imageURL := openai.ChatCompletionContentPartImageImageURLParam{
		URL: DataURI(f.MIME, payload),
	}
	if c.lowDetail {
		imageURL.Detail = "low"
	}
	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		MaxCompletionTokens: openai.Int(300),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(imageURL),
			}),
		},
	}
	completion, err := c.ai.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &ProviderError{Op: "completion", Err: err}
	}
	if len(completion.Choices) == 0 {
		return "", &ProviderError{Op: "completion", Err: errors.New("empty response")}
	}
	caption := strings.TrimSpace(completion.Choices[0].Message.Content)
	if caption == "" {
		return "", &ProviderError{Op: "completion", Err: errors.New("empty caption")}
	}
	return caption, nil
}

// DataURI encodes payload as a base64 data URI under the given media
// type, falling back to application/octet-stream when it's empty.
func DataURI(mime string, payload []byte) string {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(payload))
}

func apiKey() string {
	if k := os.Getenv("LETDROP_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("OPENAI_API_KEY")
}
