package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"ncmirtools/internal/config"
)

// Session is an established connection able to open SFTP channels.
type Session interface {
	NewSFTPClient() (*sftp.Client, error)
	Close() error
}

type sshSession struct {
	client *ssh.Client
}

func (s *sshSession) NewSFTPClient() (*sftp.Client, error) {
	return sftp.NewClient(s.client)
}

func (s *sshSession) Close() error {
	return s.client.Close()
}

func dialSSH(ctx context.Context, settings config.SFTP, logger *slog.Logger) (Session, error) {
	signer, err := loadSigner(settings.PrivateKey, settings.PrivateKeyPassphrase)
	if err != nil {
		return nil, err
	}
	hostKeys, err := hostKeyCallback(settings.KnownHosts, logger)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            settings.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeys,
		Timeout:         settings.ConnectTimeoutDuration(),
	}

	addr := net.JoinHostPort(settings.Host, strconv.Itoa(settings.Port))
	dialer := net.Dialer{Timeout: clientConfig.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c, chans, reqs, err := handshake(ctx, conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	return &sshSession{client: ssh.NewClient(c, chans, reqs)}, nil
}

// handshake runs the SSH handshake on conn within the client timeout. A
// cancelled ctx closes conn and aborts the handshake.
func handshake(ctx context.Context, conn net.Conn, addr string, clientConfig *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
	if clientConfig.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(clientConfig.Timeout)); err != nil {
			return nil, nil, nil, fmt.Errorf("set handshake deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if !stop() {
		if err == nil {
			_ = c.Close()
		}
		return nil, nil, nil, ctx.Err()
	}
	if err != nil {
		return nil, nil, nil, err
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		_ = c.Close()
		return nil, nil, nil, fmt.Errorf("clear handshake deadline: %w", err)
	}
	return c, chans, reqs, nil
}

func loadSigner(path, passphrase string) (ssh.Signer, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(pem)
	}
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return signer, nil
}

func hostKeyCallback(knownHostsFile string, logger *slog.Logger) (ssh.HostKeyCallback, error) {
	if knownHostsFile == "" {
		logger.Warn("host key verification disabled",
			slog.String("event_type", "ssh_insecure_host_key"),
			slog.String("error_hint", "set known_hosts in the [sftp] section"),
		)
		return ssh.InsecureIgnoreHostKey(), nil
	}
	callback, err := knownhosts.New(knownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("load known hosts: %w", err)
	}
	return callback, nil
}
