// Package kiosk finds the newest settled instrument file and pushes it to the
// kiosk server, recording each success so the same file is never sent twice.
//
// The whole sequence from discovery through the ledger update runs under a
// PID lock so overlapping scheduled runs cannot both decide to send a file.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"ncmirtools/internal/config"
	"ncmirtools/internal/fileutil"
	"ncmirtools/internal/finder"
	"ncmirtools/internal/ledger"
	"ncmirtools/internal/logging"
	"ncmirtools/internal/metrics"
	"ncmirtools/internal/notifications"
	"ncmirtools/internal/pidlock"
	"ncmirtools/internal/transport"
)

// Mode selects whether files are actually transferred.
type Mode string

const (
	ModeRun    Mode = "run"
	ModeDryRun Mode = "dryrun"
)

// Process exit codes.
const (
	ExitOK             = 0
	ExitTransferFailed = 1
	ExitConfig         = 2
	ExitFinder         = 3
	ExitTransport      = 4
	ExitLockContention = 5
)

// DryRunBanner is printed first in dryrun mode.
const DryRunBanner = "DRYRUN MODE NO CHANGES OR TRANSFERS WILL BE PERFORMED"

// Selector picks the file to transfer.
type Selector interface {
	Select() (finder.Candidate, bool)
}

// Params configures a single run.
type Params struct {
	Mode   Mode
	Config *config.Config
	// ConfigErr is the error from loading configuration, if any.
	ConfigErr error
	// HelpHint is appended to configuration error messages.
	HelpHint string

	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// Selector, Transport, and Notifier replace the ones built from Config
	// when set.
	Selector  Selector
	Transport transport.Transport
	Notifier  notifications.Service
}

type runner struct {
	Params
	logger  *slog.Logger
	outcome metrics.KioskRun
}

// Run executes one kiosk pass and returns the process exit code.
func Run(ctx context.Context, p Params) int {
	if p.Stdout == nil {
		p.Stdout = os.Stdout
	}
	if p.Stderr == nil {
		p.Stderr = os.Stderr
	}
	if p.Mode == "" {
		p.Mode = ModeRun
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &runner{
		Params: p,
		logger: logging.WithContext(ctx, logging.NewComponentLogger(logger, "imagetokiosk")),
	}

	if r.Notifier == nil {
		r.Notifier = notifications.NewService(p.Config)
	}

	code := r.run(ctx)
	r.writeMetrics()
	return code
}

func (r *runner) run(ctx context.Context) int {
	if r.Mode == ModeDryRun {
		fmt.Fprintln(r.Stdout, DryRunBanner)
	}

	if r.ConfigErr != nil {
		return r.fail(ExitConfig, metrics.OutcomeConfigError, r.ConfigErr)
	}
	if r.Config == nil || !r.Config.HasSection(config.SectionDataServer) {
		return r.fail(ExitConfig, metrics.OutcomeConfigError, &config.MissingOptionError{Section: config.SectionDataServer})
	}
	ledgerPath, lockPath, err := r.Config.TransferLogPaths()
	if err != nil {
		return r.fail(ExitConfig, metrics.OutcomeConfigError, err)
	}

	selector := r.Selector
	if selector == nil {
		built, err := finder.NewFromConfig(r.Config, r.logger)
		if err != nil {
			return r.fail(ExitFinder, metrics.OutcomeFinderError, err)
		}
		selector = built
	}

	book := ledger.New(ledgerPath)
	r.outcome.LastSuccess = modTime(ledgerPath)

	code := ExitOK
	err = pidlock.With(ctx, lockPath, r.Config.LockTimeout(), func() error {
		code = r.checkAndTransfer(ctx, selector, book)
		return nil
	})
	if err != nil {
		var contention *pidlock.ContentionError
		if errors.As(err, &contention) {
			fmt.Fprintf(r.Stderr, "Another imagetokiosk run (pid %d) holds %s, skipping this run\n", contention.PID, contention.Path)
			r.outcome.Outcome = metrics.OutcomeLockContention
			r.logger.Warn("lock held by another run",
				logging.Int("pid", contention.PID),
				logging.String("lock", contention.Path),
				logging.String(logging.FieldEventType, "kiosk_lock_contention"),
				logging.String(logging.FieldErrorHint, "a previous run is still transferring"),
			)
			r.notify(r.Notifier.NotifyLockContention(ctx, contention.Path, contention.PID))
			return ExitLockContention
		}
		return r.fail(ExitTransferFailed, metrics.OutcomeTransferFailed, err)
	}
	return code
}

func (r *runner) checkAndTransfer(ctx context.Context, selector Selector, book *ledger.Ledger) int {
	candidate, ok := selector.Select()
	if !ok {
		fmt.Fprintln(r.Stdout, "Did not find a file to transfer")
		r.outcome.Outcome = metrics.OutcomeNothingFound
		return ExitOK
	}
	thefile := candidate.Path

	last, found, err := book.Get()
	if err != nil {
		return r.fail(ExitTransferFailed, metrics.OutcomeTransferFailed, err)
	}
	if found {
		r.logger.Info("last transferred file", logging.String(logging.FieldFile, last))
	}
	if found && last == thefile {
		fmt.Fprintf(r.Stdout, "According to last transfer log, %s already transferred\n", thefile)
		r.outcome.Outcome = metrics.OutcomeAlreadySent
		return ExitOK
	}

	tr := r.Transport
	if tr == nil {
		built, err := transport.NewSFTPFromConfig(r.Config, r.logger)
		if err != nil {
			return r.fail(ExitTransport, metrics.OutcomeTransportError, err)
		}
		tr = built
	}

	r.logger.Debug("connecting to remote server")
	if err := tr.Connect(ctx); err != nil {
		tr.Disconnect()
		fmt.Fprintf(r.Stdout, "After 0 seconds. Transfer failed: %v\n", err)
		r.outcome.Outcome = metrics.OutcomeTransferFailed
		r.notify(r.Notifier.NotifyTransferFailed(ctx, thefile, err))
		return ExitTransferFailed
	}
	defer func() {
		r.logger.Debug("disconnecting from remote server")
		tr.Disconnect()
	}()

	size, err := fileutil.Size(thefile)
	if err != nil {
		return r.fail(ExitTransferFailed, metrics.OutcomeTransferFailed, err)
	}
	fmt.Fprintf(r.Stdout, "\nTransferring %s which is %d bytes\n", thefile, size)

	if r.Mode == ModeDryRun {
		fmt.Fprintf(r.Stdout, "File that would have been transferred: %s\n", thefile)
		r.outcome.Outcome = metrics.OutcomeDryRun
		return ExitOK
	}

	status, err := tr.TransferFile(ctx, thefile)
	if err != nil {
		if errors.Is(err, transport.ErrInvalidDestinationDir) {
			return r.fail(ExitTransport, metrics.OutcomeTransportError, fmt.Errorf("%w: set dest_dir in [sftp]", err))
		}
		return r.fail(ExitTransferFailed, metrics.OutcomeTransferFailed, err)
	}
	r.outcome.Duration = status.Duration
	r.logger.Info("transfer finished",
		logging.String(logging.FieldFile, thefile),
		logging.Duration("duration", status.Duration),
		logging.Int64(logging.FieldBytes, status.Bytes),
		logging.Bool("ok", status.OK()),
	)

	if !status.OK() {
		fmt.Fprintf(r.Stdout, "After %d seconds. Transfer failed: %v\n", wholeSeconds(status.Duration), status.Err)
		r.outcome.Outcome = metrics.OutcomeTransferFailed
		r.notify(r.Notifier.NotifyTransferFailed(ctx, thefile, status.Err))
		return ExitTransferFailed
	}

	fmt.Fprintf(r.Stdout, "After %d seconds. Transfer succeeded.\n", wholeSeconds(status.Duration))
	r.outcome.Outcome = metrics.OutcomeTransferred
	r.outcome.Bytes = status.Bytes
	r.outcome.LastSuccess = time.Now()
	if err := book.Record(thefile); err != nil {
		r.logger.Error("unable to update transfer log",
			logging.String("transfer_log", book.Path()),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ledger_write_failed"),
			logging.String(logging.FieldErrorHint, "the file may be sent again on the next run"),
		)
	}
	r.notify(r.Notifier.NotifyTransferCompleted(ctx, thefile, status.Bytes, status.Duration))
	return ExitOK
}

func (r *runner) fail(code int, outcome string, err error) int {
	msg := err.Error()
	if code == ExitConfig || code == ExitFinder || code == ExitTransport {
		if r.HelpHint != "" {
			msg += ". " + r.HelpHint
		}
	}
	fmt.Fprintln(r.Stderr, msg)
	r.outcome.Outcome = outcome
	r.logger.Debug("run failed", logging.Int("exit_code", code), logging.Error(err))
	return code
}

func (r *runner) writeMetrics() {
	if r.Config == nil || r.Config.Metrics.Textfile == "" {
		return
	}
	r.outcome.Finished = time.Now()
	if err := metrics.WriteKioskTextfile(r.Config.Metrics.Textfile, r.outcome); err != nil {
		logging.WarnWithContext(r.logger, "unable to write metrics textfile", "metrics_write_failed",
			"check the [metrics] textfile path", logging.Error(err))
	}
}

func (r *runner) notify(err error) {
	if err != nil {
		logging.WarnWithContext(r.logger, "unable to send notification", "notification_failed",
			"check the [notifications] ntfy_topic", logging.Error(err))
	}
}

func wholeSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
