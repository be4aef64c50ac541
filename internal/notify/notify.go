// Package notify posts wallpapers and stories to a WeCom-style group robot
// webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/starford/wallhub/internal/checksum"
	"github.com/starford/wallhub/internal/models"
)

const requestTimeout = 10 * time.Second

var imageRefRe = regexp.MustCompile(`!\[.*?\]\(.*?\)`)

// WebhookError is returned when the webhook rejects a message.
type WebhookError struct {
	Status int
	Code   int64
	Msg    string
}

func (e *WebhookError) Error() string {
	if e.Status != 0 && (e.Status < 200 || e.Status > 299) {
		return fmt.Sprintf("notify: webhook status %d", e.Status)
	}
	return fmt.Sprintf("notify: webhook errcode %d: %s", e.Code, e.Msg)
}

// Client sends messages to one webhook.
type Client struct {
	webhookURL    string
	repoURL       string
	maxStoryBytes int
	http          *http.Client
}

// New creates a Client. repoURL is linked from message footers.
func New(webhookURL, repoURL string, maxStoryBytes int) *Client {
	return &Client{
		webhookURL:    webhookURL,
		repoURL:       repoURL,
		maxStoryBytes: maxStoryBytes,
		http:          &http.Client{Timeout: requestTimeout},
	}
}

// SendImage posts raw image bytes.
func (c *Client) SendImage(ctx context.Context, image []byte) error {
	return c.post(ctx, map[string]any{
		"msgtype": "image",
		"image": map[string]string{
			"base64": base64.StdEncoding.EncodeToString(image),
			"md5":    checksum.MD5(image),
		},
	})
}

// SendAnnouncement posts the short daily announcement for m.
func (c *Client) SendAnnouncement(ctx context.Context, m *models.Meta, sourceName string) error {
	return c.markdown(ctx, Announcement(m, sourceName, c.repoURL))
}

// SendStory posts the cleaned story of m.
func (c *Client) SendStory(ctx context.Context, m *models.Meta, story string) error {
	body := CleanStory(story, c.maxStoryBytes, c.repoURL)
	content := fmt.Sprintf("# 📖 %s\n\n**日期**: %s\n\n---\n\n%s", m.TitleOr("每日壁纸"), m.Date, body)
	return c.markdown(ctx, content)
}

// Announcement renders the announcement markdown.
func Announcement(m *models.Meta, sourceName, repoURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### 🖼 今日%s壁纸 · %s\n\n", sourceName, m.Date)
	fmt.Fprintf(&b, "**%s**\n\n", m.Title)
	fmt.Fprintf(&b, "> %s\n\n", m.Copyright)
	fmt.Fprintf(&b, "📦 已自动归档至 [GitHub 仓库](%s)\n", repoURL)
	b.WriteString("🔁 自动化定时任务运行中")
	return b.String()
}

// CleanStory removes markdown image references and trims the story. A story
// longer than maxBytes is cut on a rune boundary and gets a footer linking
// to repoURL.
func CleanStory(story string, maxBytes int, repoURL string) string {
	text := strings.TrimSpace(imageRefRe.ReplaceAllString(story, ""))
	if len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + StoryFooter(repoURL)
}

// StoryFooter is appended to truncated stories.
func StoryFooter(repoURL string) string {
	return fmt.Sprintf("\n\n...\n\n> 查看完整故事请访问 [GitHub 仓库](%s)", repoURL)
}

func (c *Client) markdown(ctx context.Context, content string) error {
	return c.post(ctx, map[string]any{
		"msgtype":  "markdown",
		"markdown": map[string]string{"content": content},
	})
}

func (c *Client) post(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("notify: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("notify: read reply: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &WebhookError{Status: resp.StatusCode, Msg: strings.TrimSpace(string(body))}
	}
	code := gjson.GetBytes(body, "errcode")
	if !code.Exists() || code.Int() != 0 {
		return &WebhookError{Status: resp.StatusCode, Code: code.Int(), Msg: gjson.GetBytes(body, "errmsg").String()}
	}
	return nil
}
