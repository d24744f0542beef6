package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ncmirtools/internal/metrics"
)

func TestWriteKioskTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textfile", "imagetokiosk.prom")
	finished := time.Unix(1700000000, 0)

	err := metrics.WriteKioskTextfile(path, metrics.KioskRun{
		Outcome:     metrics.OutcomeTransferred,
		Finished:    finished,
		Bytes:       4096,
		Duration:    1500 * time.Millisecond,
		LastSuccess: finished,
	})
	if err != nil {
		t.Fatalf("WriteKioskTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"ncmirtools_kiosk_last_run_timestamp_seconds 1.7e+09",
		"ncmirtools_kiosk_last_success_timestamp_seconds 1.7e+09",
		"ncmirtools_kiosk_last_transfer_bytes 4096",
		"ncmirtools_kiosk_last_transfer_duration_seconds 1.5",
		`ncmirtools_kiosk_last_run_outcome{outcome="transferred"} 1`,
		`ncmirtools_kiosk_last_run_outcome{outcome="transfer_failed"} 0`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in textfile:\n%s", want, text)
		}
	}
}

func TestWriteKioskTextfileReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagetokiosk.prom")
	if err := metrics.WriteKioskTextfile(path, metrics.KioskRun{Outcome: metrics.OutcomeTransferred}); err != nil {
		t.Fatal(err)
	}
	if err := metrics.WriteKioskTextfile(path, metrics.KioskRun{Outcome: metrics.OutcomeLockContention}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `outcome="lock_contention"} 1`) {
		t.Fatalf("expected latest outcome, got:\n%s", data)
	}
	if !strings.Contains(string(data), `outcome="transferred"} 0`) {
		t.Fatalf("expected previous outcome cleared, got:\n%s", data)
	}
}
