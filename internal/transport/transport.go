// Package transport pushes local files to the remote kiosk server.
//
// A Transport moves through Disconnected, Connected, Disconnected. Ordinary
// network and remote failures during a transfer are reported in Status.Err
// and never returned as errors; the errors returned from TransferFile are
// reserved for caller mistakes such as transferring before Connect.
package transport

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrConnectionNotEstablished is returned when TransferFile runs before a
	// successful Connect.
	ErrConnectionNotEstablished = errors.New("connection not established")
	// ErrInvalidDestinationDir is returned when no remote destination
	// directory is configured.
	ErrInvalidDestinationDir = errors.New("destination directory not set")
)

// Status is the outcome of a single TransferFile call.
type Status struct {
	// Err is nil on success. Bytes is zero whenever Err is set.
	Err         error
	Duration    time.Duration
	Bytes       int64
	Destination string
}

// OK reports whether the transfer succeeded.
func (s Status) OK() bool { return s.Err == nil }

// Transport uploads files to a remote directory.
type Transport interface {
	Connect(ctx context.Context) error
	TransferFile(ctx context.Context, localPath string) (Status, error)
	// Disconnect releases every resource opened by Connect or TransferFile.
	// It is safe to call repeatedly and without a prior Connect.
	Disconnect()
	DestinationDir() string
}

// DestinationPath returns where localPath lands under the remote dir.
func DestinationPath(dir, localPath string) string {
	return strings.TrimRight(dir, "/") + "/" + filepath.Base(localPath)
}
