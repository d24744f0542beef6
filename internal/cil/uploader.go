// Package cil uploads a data file to the kiosk server and registers it with
// the Cell Image Library REST service.
//
// Registration happens only after the file has landed on the remote server.
// Every outcome, including unmet preconditions and remote rejections, is
// returned as a Result rather than an error. Nothing guards against uploading
// the same file twice: each call overwrites the remote copy and the service
// issues a new id.
package cil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ncmirtools/internal/config"
	"ncmirtools/internal/logging"
	"ncmirtools/internal/transport"
)

// RegisterPath is appended to the REST URL for the registration call.
const RegisterPath = "/upload_rest/upload_entry"

const maxResponseBytes = 1 << 20

// HTTPDoer describes the HTTP client used for registration.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Uploader runs the two phase transfer and registration.
type Uploader struct {
	Transport    transport.Transport
	RestURL      string
	RestUser     string
	RestPassword string
	Timeout      time.Duration

	logger *slog.Logger
}

// New constructs an Uploader. A nil logger discards log output.
func New(tr transport.Transport, settings config.CIL, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Uploader{
		Transport:    tr,
		RestURL:      strings.TrimRight(strings.TrimSpace(settings.RestURL), "/"),
		RestUser:     strings.TrimSpace(settings.RestUser),
		RestPassword: settings.RestPassword,
		Timeout:      settings.RequestTimeoutDuration(),
		logger:       logging.NewComponentLogger(logger, "cilupload"),
	}
}

type registerRequest struct {
	FilePath string `json:"File_path"`
}

type registerResponse struct {
	Success bool        `json:"success"`
	ID      json.Number `json:"ID"`
}

// UploadAndRegister transfers localFile and registers the remote copy. When
// client is nil a client is created for this call and its idle connections
// are closed before returning.
func (u *Uploader) UploadAndRegister(ctx context.Context, localFile string, client HTTPDoer) Result {
	if reason, ok := u.checkPreconditions(localFile); !ok {
		u.logger.Warn("upload not attempted",
			logging.String("reason", reason.Message()),
			logging.String(logging.FieldEventType, "cil_precondition_failed"),
			logging.String(logging.FieldErrorHint, "check the [cil] and [sftp] sections of the configuration"),
		)
		return Result{Reason: reason, ErrorMessage: reason.Message()}
	}

	result, ok := u.transfer(ctx, localFile)
	if !ok {
		return result
	}

	if client == nil {
		owned := &http.Client{Timeout: u.Timeout}
		defer owned.CloseIdleConnections()
		client = owned
	}
	return u.register(ctx, client, result)
}

func (u *Uploader) checkPreconditions(localFile string) (Reason, bool) {
	switch {
	case u.Transport == nil:
		return ReasonNoTransport, false
	case u.RestURL == "":
		return ReasonNoURL, false
	case u.RestUser == "":
		return ReasonNoUser, false
	case u.RestPassword == "":
		return ReasonNoPassword, false
	case strings.TrimSpace(localFile) == "":
		return ReasonNoFile, false
	}
	return ReasonNone, true
}

func (u *Uploader) transfer(ctx context.Context, localFile string) (Result, bool) {
	if err := u.Transport.Connect(ctx); err != nil {
		u.Transport.Disconnect()
		return Result{Reason: ReasonTransfer, ErrorMessage: err.Error()}, false
	}
	defer u.Transport.Disconnect()

	status, err := u.Transport.TransferFile(ctx, localFile)
	if err != nil {
		return Result{Reason: ReasonTransfer, ErrorMessage: err.Error()}, false
	}
	if status.Err != nil {
		return Result{
			Reason:       ReasonTransfer,
			ErrorMessage: status.Err.Error(),
			Duration:     status.Duration,
			transferred:  true,
		}, false
	}

	dest := status.Destination
	if dest == "" {
		dest = transport.DestinationPath(u.Transport.DestinationDir(), localFile)
	}
	return Result{
		Destination: dest,
		Bytes:       status.Bytes,
		Duration:    status.Duration,
		transferred: true,
	}, true
}

func (u *Uploader) register(ctx context.Context, client HTTPDoer, result Result) Result {
	result.Reason = ReasonRegister

	payload, err := json.Marshal(registerRequest{FilePath: result.Destination})
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("encode registration request: %v", err)
		return result
	}
	endpoint := u.RestURL + RegisterPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("build registration request: %v", err)
		return result
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(u.RestUser, u.RestPassword)

	resp, err := client.Do(req)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("register %s: %v", result.Destination, err)
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil && !errors.Is(err, io.EOF) {
		result.ErrorMessage = fmt.Sprintf("read registration response: %v", err)
		return result
	}
	text := strings.TrimSpace(string(body))

	if resp.StatusCode != http.StatusOK {
		result.ErrorMessage = fmt.Sprintf("received status code %d", resp.StatusCode)
		if text != "" {
			result.ErrorMessage += ": " + text
		}
		u.logger.Warn("registration rejected",
			logging.String("endpoint", endpoint),
			logging.Int("status", resp.StatusCode),
			logging.String(logging.FieldEventType, "cil_register_failed"),
			logging.String(logging.FieldErrorHint, "verify resturl and credentials in the [cil] section"),
		)
		return result
	}

	var decoded registerResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil || !decoded.Success {
		result.ErrorMessage = text
		if result.ErrorMessage == "" {
			result.ErrorMessage = "registration response did not report success"
		}
		return result
	}

	result.Reason = ReasonNone
	result.Success = true
	result.ID = decoded.ID.String()
	u.logger.Info("registered upload",
		logging.String("id", result.ID),
		logging.String("destination", result.Destination),
	)
	return result
}
