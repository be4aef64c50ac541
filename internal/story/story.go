// Package story asks an OpenAI-compatible chat service for a short narrative
// about a wallpaper.
package story

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/starford/wallhub/internal/apperr"
)

// Generator produces a story for an image and its caption.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request describes the wallpaper a story is written for.
type Request struct {
	Title     string
	Copyright string
	// Image is the JPEG to attach; nil sends the caption only.
	Image []byte
}

// Options configures the OpenAI client.
type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	WithImage bool
}

// Client implements Generator with go-openai.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	withImage bool
}

// ErrEmptyStory is returned when the service answers without text.
var ErrEmptyStory = errors.New("story: empty completion")

const systemPrompt = "You are a travel and culture writer. Given a wallpaper photo and its caption, " +
	"write a vivid story in Markdown of about 300 words: where the scene is, what makes it remarkable, " +
	"and one piece of history or natural science behind it. Start with a level-one heading. " +
	"Do not include images or links."

// New builds a Client. It returns a config-missing error when no API key is set.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, apperr.ConfigMissing("story", "story.api_key")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	return &Client{
		api:       openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		withImage: opts.WithImage,
	}, nil
}

// Generate requests a story. Failures are returned as skip errors so callers
// carry on without one.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: c.userParts(req)},
		},
	})
	if err != nil {
		return "", apperr.Skip("story", fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Skip("story", ErrEmptyStory)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", apperr.Skip("story", ErrEmptyStory)
	}
	return text + "\n", nil
}

func (c *Client) userParts(req Request) []openai.ChatMessagePart {
	caption := fmt.Sprintf("Title: %s\nCaption: %s", req.Title, req.Copyright)
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: caption},
	}
	if c.withImage && len(req.Image) > 0 {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(req.Image),
				Detail: openai.ImageURLDetailLow,
			},
		})
	}
	return parts
}
