package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"ncmirtools/internal/catalog"
	"ncmirtools/internal/config"
	"ncmirtools/internal/transport"
)

const (
	sftpCheckName    = "Kiosk SFTP"
	cilCheckName     = "CIL REST service"
	catalogCheckName = "Project catalog"

	httpCheckTimeout = 5 * time.Second
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable,
// and writable when write is set.
func CheckDirectoryAccess(name, path string, write bool) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	mode, label := uint32(unix.R_OK|unix.X_OK), "read ok"
	if write {
		mode, label = mode|unix.W_OK, "read/write ok"
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, label)}
}

// CheckSFTP connects and immediately disconnects tr.
func CheckSFTP(ctx context.Context, tr transport.Transport) Result {
	defer tr.Disconnect()
	if err := tr.Connect(ctx); err != nil {
		return Result{Name: sftpCheckName, Detail: summarizeNetError(err)}
	}
	return Result{Name: sftpCheckName, Passed: true, Detail: fmt.Sprintf("login ok, uploads go to %s", tr.DestinationDir())}
}

// CheckCIL verifies that the REST service answers. Any response below 500
// counts as reachable since the registration endpoint only accepts POST.
func CheckCIL(ctx context.Context, restURL string, client HTTPDoer) Result {
	base := strings.TrimRight(strings.TrimSpace(restURL), "/")
	if base == "" {
		return Result{Name: cilCheckName, Detail: "missing resturl"}
	}
	if client == nil {
		client = &http.Client{Timeout: httpCheckTimeout}
	}

	checkCtx, cancel := context.WithTimeout(ctx, httpCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base, nil)
	if err != nil {
		return Result{Name: cilCheckName, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: cilCheckName, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: cilCheckName, Detail: fmt.Sprintf("server error (%d)", resp.StatusCode)}
	}
	return Result{Name: cilCheckName, Passed: true, Detail: fmt.Sprintf("Reachable (%d)", resp.StatusCode)}
}

// CheckCatalog opens and closes the catalog connection.
func CheckCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) Result {
	store, err := catalog.OpenFromConfig(ctx, cfg, logger)
	if err != nil {
		return Result{Name: catalogCheckName, Detail: summarizeNetError(err)}
	}
	_ = store.Close()
	return Result{Name: catalogCheckName, Passed: true, Detail: fmt.Sprintf("%s connection ok", cfg.Database.Driver)}
}

// summarizeNetError produces a human-readable summary for connectivity failures.
func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (service unreachable)"
	}
	return err.Error()
}
