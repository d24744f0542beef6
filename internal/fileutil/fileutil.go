package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// StreamResult describes a completed StreamVerified call.
type StreamResult struct {
	Bytes  int64
	SHA256 string
}

// StreamVerified copies the file at src into dst and verifies that the number
// of bytes written matches the size of src when it was opened. The SHA-256 of
// the streamed content is returned for logging.
func StreamVerified(dst io.Writer, src string) (StreamResult, error) {
	in, err := os.Open(src)
	if err != nil {
		return StreamResult{}, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return StreamResult{}, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return StreamResult{}, fmt.Errorf("%s is not a regular file", src)
	}

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(dst, hasher), in)
	if err != nil {
		return StreamResult{Bytes: written}, err
	}
	if written != info.Size() {
		return StreamResult{Bytes: written}, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	return StreamResult{Bytes: written, SHA256: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// Size returns the size in bytes of the file at path.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
