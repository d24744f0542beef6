package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"ncmirtools/internal/config"
)

const userAgent = "ncmirtools/1.0"

// Service defines the notification surface used by the transfer commands.
type Service interface {
	NotifyTransferCompleted(ctx context.Context, file string, bytes int64, duration time.Duration) error
	NotifyTransferFailed(ctx context.Context, file string, err error) error
	NotifyLockContention(ctx context.Context, lockPath string, pid int) error
	NotifyUploadRegistered(ctx context.Context, file, id string) error
	NotifyUploadFailed(ctx context.Context, file, message string) error
	TestNotification(ctx context.Context) error
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	settings := cfg.Notifications
	topic := strings.TrimSpace(settings.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return NewNtfy(topic, settings.NotifySuccess, &http.Client{Timeout: settings.RequestTimeoutDuration()})
}

// NewNtfy returns a Service posting to endpoint through client. Success
// messages are only sent when notifySuccess is set.
func NewNtfy(endpoint string, notifySuccess bool, client HTTPDoer) Service {
	return &ntfyService{
		endpoint:      endpoint,
		notifySuccess: notifySuccess,
		client:        client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	notifySuccess bool
	client        HTTPDoer
}

func (n *ntfyService) NotifyTransferCompleted(ctx context.Context, file string, bytes int64, duration time.Duration) error {
	if !n.notifySuccess {
		return nil
	}
	data := payload{
		title:   "ncmirtools - Transfer Complete",
		message: fmt.Sprintf("Sent %s to the kiosk (%d bytes in %s)", filepath.Base(file), bytes, duration.Round(time.Second)),
		tags:    []string{"ncmirtools", "kiosk", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTransferFailed(ctx context.Context, file string, err error) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Transfer of %s failed", strings.TrimSpace(file))
	if err != nil {
		fmt.Fprintf(&builder, ": %v", err)
	}
	data := payload{
		title:    "ncmirtools - Transfer Failed",
		message:  builder.String(),
		tags:     []string{"ncmirtools", "kiosk", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyLockContention(ctx context.Context, lockPath string, pid int) error {
	data := payload{
		title:   "ncmirtools - Run Skipped",
		message: fmt.Sprintf("Process %d still holds %s; the scheduled transfer was skipped", pid, lockPath),
		tags:    []string{"ncmirtools", "kiosk", "lock"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadRegistered(ctx context.Context, file, id string) error {
	if !n.notifySuccess {
		return nil
	}
	data := payload{
		title:   "ncmirtools - CIL Upload",
		message: fmt.Sprintf("Registered %s with the Cell Image Library as %s", filepath.Base(file), id),
		tags:    []string{"ncmirtools", "cil", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadFailed(ctx context.Context, file, message string) error {
	data := payload{
		title:    "ncmirtools - CIL Upload Failed",
		message:  fmt.Sprintf("Upload of %s failed: %s", strings.TrimSpace(file), message),
		tags:     []string{"ncmirtools", "cil", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "ncmirtools - Test",
		message:  "Notification system test",
		tags:     []string{"ncmirtools", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyTransferCompleted(context.Context, string, int64, time.Duration) error { return nil }
func (noopService) NotifyTransferFailed(context.Context, string, error) error                   { return nil }
func (noopService) NotifyLockContention(context.Context, string, int) error                     { return nil }
func (noopService) NotifyUploadRegistered(context.Context, string, string) error                { return nil }
func (noopService) NotifyUploadFailed(context.Context, string, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                                      { return nil }
