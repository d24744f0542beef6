package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ncmirtools/internal/config"
	"ncmirtools/internal/notifications"
)

type captured struct {
	calls    int
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.calls++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		got.body = string(body)
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte("topic not allowed"))
		}
	}))
	t.Cleanup(server.Close)
	return server, got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyTransferFailed(context.Background(), "/data/a.dm4", errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop notifier for nil config, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "transfer failed",
			send: func(s notifications.Service) error {
				return s.NotifyTransferFailed(context.Background(), "/data/20.dm4", errors.New("connection reset"))
			},
			expectTitle:    "ncmirtools - Transfer Failed",
			expectMessage:  "Transfer of /data/20.dm4 failed: connection reset",
			expectTags:     "ncmirtools,kiosk,error",
			expectPriority: "high",
		},
		{
			name: "transfer completed",
			send: func(s notifications.Service) error {
				return s.NotifyTransferCompleted(context.Background(), "/data/20.dm4", 2048, 1400*time.Millisecond)
			},
			expectTitle:   "ncmirtools - Transfer Complete",
			expectMessage: "Sent 20.dm4 to the kiosk (2048 bytes in 1s)",
			expectTags:    "ncmirtools,kiosk,completed",
		},
		{
			name: "lock contention",
			send: func(s notifications.Service) error {
				return s.NotifyLockContention(context.Background(), "/var/run/kiosk.lock", 4242)
			},
			expectTitle:   "ncmirtools - Run Skipped",
			expectMessage: "Process 4242 still holds /var/run/kiosk.lock; the scheduled transfer was skipped",
			expectTags:    "ncmirtools,kiosk,lock",
		},
		{
			name: "upload registered",
			send: func(s notifications.Service) error {
				return s.NotifyUploadRegistered(context.Background(), "/tmp/cell.tif", "19")
			},
			expectTitle:   "ncmirtools - CIL Upload",
			expectMessage: "Registered cell.tif with the Cell Image Library as 19",
			expectTags:    "ncmirtools,cil,completed",
		},
		{
			name: "upload failed",
			send: func(s notifications.Service) error {
				return s.NotifyUploadFailed(context.Background(), "/tmp/cell.tif", "received status code 500")
			},
			expectTitle:    "ncmirtools - CIL Upload Failed",
			expectMessage:  "Upload of /tmp/cell.tif failed: received status code 500",
			expectTags:     "ncmirtools,cil,error",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := newNtfyServer(t, http.StatusOK)

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.NotifySuccess = true

			if err := tc.send(notifications.NewService(&cfg)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceSuppressesSuccessByDefault(t *testing.T) {
	server, got := newNtfyServer(t, http.StatusOK)
	svc := notifications.NewNtfy(server.URL, false, server.Client())

	if err := svc.NotifyTransferCompleted(context.Background(), "/data/a.dm4", 1, time.Second); err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyUploadRegistered(context.Background(), "/data/a.dm4", "1"); err != nil {
		t.Fatal(err)
	}
	if got.calls != 0 {
		t.Fatalf("expected success messages to be suppressed, got %d calls", got.calls)
	}
}

func TestNtfyServiceReportsRejectedMessages(t *testing.T) {
	server, _ := newNtfyServer(t, http.StatusForbidden)
	svc := notifications.NewNtfy(server.URL, false, server.Client())

	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for rejected notification")
	}
	if want := "ntfy returned 403: topic not allowed"; err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
