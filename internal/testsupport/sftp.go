package testsupport

import (
	"io"
	"net"
	"sync"
	"testing"

	"github.com/pkg/sftp"
)

// SFTPSession is an in-memory SFTP server reached over net.Pipe. Every
// client opened from it shares the same file tree. It satisfies
// transport.Session.
type SFTPSession struct {
	t        testing.TB
	handlers sftp.Handlers

	mu      sync.Mutex
	opened  int
	closes  int
	OpenErr error
}

// NewSFTPSession starts an empty in-memory tree containing the given
// directories.
func NewSFTPSession(t testing.TB, dirs ...string) *SFTPSession {
	t.Helper()

	s := &SFTPSession{t: t, handlers: sftp.InMemHandler()}
	if len(dirs) > 0 {
		client := s.mustClient()
		defer client.Close()
		for _, dir := range dirs {
			if err := client.MkdirAll(dir); err != nil {
				t.Fatalf("mkdir %s: %v", dir, err)
			}
		}
	}
	return s
}

// NewSFTPClient opens a new client channel against the shared tree.
func (s *SFTPSession) NewSFTPClient() (*sftp.Client, error) {
	s.mu.Lock()
	openErr := s.OpenErr
	s.opened++
	s.mu.Unlock()
	if openErr != nil {
		return nil, openErr
	}
	return s.dial()
}

// Close records the close call. The shared tree stays readable.
func (s *SFTPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Opened returns how many channels were requested.
func (s *SFTPSession) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Closes returns how many times Close ran.
func (s *SFTPSession) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// ReadFile returns the contents of a file in the shared tree.
func (s *SFTPSession) ReadFile(path string) []byte {
	s.t.Helper()

	client := s.mustClient()
	defer client.Close()
	f, err := client.Open(path)
	if err != nil {
		s.t.Fatalf("open remote %s: %v", path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.t.Fatalf("read remote %s: %v", path, err)
	}
	return data
}

// Exists reports whether path exists in the shared tree.
func (s *SFTPSession) Exists(path string) bool {
	s.t.Helper()

	client := s.mustClient()
	defer client.Close()
	_, err := client.Stat(path)
	return err == nil
}

func (s *SFTPSession) mustClient() *sftp.Client {
	s.t.Helper()
	client, err := s.dial()
	if err != nil {
		s.t.Fatalf("open sftp client: %v", err)
	}
	return client
}

func (s *SFTPSession) dial() (*sftp.Client, error) {
	serverConn, clientConn := net.Pipe()
	server := sftp.NewRequestServer(serverConn, s.handlers)
	go func() {
		_ = server.Serve()
		_ = server.Close()
	}()
	client, err := sftp.NewClientPipe(clientConn, clientConn)
	if err != nil {
		_ = server.Close()
		return nil, err
	}
	return client, nil
}
