// Package telegram sends run results to a fixed chat via the bot API.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newsagent/internal/ports"
)

const requestTimeout = 300 * time.Second

// Notifier sends messages and file attachments to one Telegram chat.
type Notifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  "https://api.telegram.org",
		client:   &http.Client{Timeout: requestTimeout},
	}
}

// SendMessage posts a Markdown message, falling back to plain text when the
// formatted variant is rejected.
func (n *Notifier) SendMessage(ctx context.Context, text string) error {
	if err := n.checkConfig(); err != nil {
		return err
	}

	if err := n.sendMessageOnce(ctx, escapeMarkdown(text), "Markdown"); err == nil {
		return nil
	}
	return n.sendMessageOnce(ctx, text, "")
}

func (n *Notifier) sendMessageOnce(ctx context.Context, text, parseMode string) error {
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	if parseMode != "" {
		form.Set("parse_mode", parseMode)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return n.do(req)
}

// SendDocument uploads a file attachment with an optional caption.
func (n *Notifier) SendDocument(ctx context.Context, path, caption string) error {
	return n.sendFile(ctx, "sendDocument", "document", path, caption)
}

// SendAudio uploads an audio attachment with an optional caption.
func (n *Notifier) SendAudio(ctx context.Context, path, caption string) error {
	return n.sendFile(ctx, "sendAudio", "audio", path, caption)
}

func (n *Notifier) sendFile(ctx context.Context, method, field, path, caption string) error {
	if err := n.checkConfig(); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", n.chatID); err != nil {
		return fmt.Errorf("write chat_id: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption: %w", err)
		}
	}

	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy attachment: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", n.baseURL, n.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return n.do(req)
}

func (n *Notifier) do(req *http.Request) error {
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	return nil
}

func (n *Notifier) checkConfig() error {
	if n.botToken == "" || n.chatID == "" {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	return nil
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer("_", "\\_", "[", "\\[", "]", "\\]")
	return replacer.Replace(text)
}
