package transport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/sftp"

	"ncmirtools/internal/config"
	"ncmirtools/internal/fileutil"
	"ncmirtools/internal/logging"
)

// SFTPTransport uploads files over SFTP on top of an SSH connection.
type SFTPTransport struct {
	settings config.SFTP
	logger   *slog.Logger

	alternate Session
	dial      func(context.Context, config.SFTP, *slog.Logger) (Session, error)

	session Session
	client  *sftp.Client
}

// NewSFTP constructs a transport from the [sftp] section settings.
func NewSFTP(settings config.SFTP, logger *slog.Logger) *SFTPTransport {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SFTPTransport{
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "transport"),
		dial:     dialSSH,
	}
}

// NewSFTPFromConfig validates the [sftp] section and builds a transport.
func NewSFTPFromConfig(cfg *config.Config, logger *slog.Logger) (*SFTPTransport, error) {
	settings, err := cfg.SFTPSettings()
	if err != nil {
		return nil, err
	}
	return NewSFTP(settings, logger), nil
}

// SetAlternateSession makes Connect use session verbatim instead of dialing.
func (t *SFTPTransport) SetAlternateSession(session Session) {
	t.alternate = session
}

// DestinationDir returns the configured remote directory.
func (t *SFTPTransport) DestinationDir() string {
	return t.settings.DestDir
}

// Connect opens the SSH connection. A previously open connection is closed
// first.
func (t *SFTPTransport) Connect(ctx context.Context) error {
	t.Disconnect()
	if t.alternate != nil {
		t.logger.Debug("using alternate session")
		t.session = t.alternate
		return nil
	}
	t.logger.Debug("connecting",
		logging.String("host", t.settings.Host),
		logging.Int("port", t.settings.Port),
		logging.String("user", t.settings.User),
	)
	session, err := t.dial(ctx, t.settings, t.logger)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", t.settings.Host, err)
	}
	t.session = session
	return nil
}

// TransferFile uploads localPath into the destination directory. The upload
// is confirmed by comparing the remote size with the local size.
func (t *SFTPTransport) TransferFile(ctx context.Context, localPath string) (Status, error) {
	if t.session == nil {
		return Status{}, ErrConnectionNotEstablished
	}
	if t.settings.DestDir == "" {
		return Status{}, ErrInvalidDestinationDir
	}

	start := time.Now()
	dest := DestinationPath(t.settings.DestDir, localPath)
	status := Status{Destination: dest}

	written, err := t.upload(ctx, localPath, dest)
	status.Duration = time.Since(start)
	if err != nil {
		status.Err = err
		t.logger.Warn("transfer failed",
			logging.String(logging.FieldFile, localPath),
			logging.String("destination", dest),
			logging.Error(err),
			logging.String(logging.FieldEventType, "transfer_failed"),
			logging.String(logging.FieldErrorHint, "check connectivity and permissions on the kiosk server"),
		)
		return status, nil
	}
	status.Bytes = written
	t.logger.Info("transfer complete",
		logging.String(logging.FieldFile, localPath),
		logging.String("destination", dest),
		logging.Int64(logging.FieldBytes, written),
		logging.Duration("duration", status.Duration),
	)
	return status, nil
}

func (t *SFTPTransport) upload(ctx context.Context, localPath, dest string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if t.client == nil {
		t.logger.Debug("opening sftp channel")
		client, err := t.session.NewSFTPClient()
		if err != nil {
			return 0, fmt.Errorf("open sftp channel: %w", err)
		}
		t.client = client
	}

	t.logger.Info("uploading", logging.String(logging.FieldFile, localPath), logging.String("destination", dest))
	remote, err := t.client.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	if err != nil {
		return 0, fmt.Errorf("open remote %s: %w", dest, err)
	}
	result, copyErr := fileutil.StreamVerified(remote, localPath)
	closeErr := remote.Close()
	if copyErr != nil {
		return 0, fmt.Errorf("upload %s: %w", localPath, copyErr)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("close remote %s: %w", dest, closeErr)
	}

	info, err := t.client.Stat(dest)
	if err != nil {
		return 0, fmt.Errorf("stat remote %s: %w", dest, err)
	}
	if info.Size() != result.Bytes {
		return 0, fmt.Errorf("size mismatch: remote %d bytes, local %d bytes", info.Size(), result.Bytes)
	}
	t.logger.Debug("upload verified", logging.String("sha256", result.SHA256))
	return result.Bytes, nil
}

// Disconnect closes the SFTP channel and the connection independently.
// Close failures are logged and otherwise ignored.
func (t *SFTPTransport) Disconnect() {
	if t.client != nil {
		if err := t.client.Close(); err != nil {
			t.logger.Warn("close sftp channel failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "sftp_close_failed"),
				logging.String(logging.FieldErrorHint, "remote channel may already be gone"),
			)
		}
	}
	t.client = nil

	if t.session != nil {
		if err := t.session.Close(); err != nil {
			t.logger.Warn("close connection failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "ssh_close_failed"),
				logging.String(logging.FieldErrorHint, "remote connection may already be gone"),
			)
		}
	}
	t.session = nil
}
