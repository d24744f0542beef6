package preflight

import (
	"context"
	"log/slog"
	"path/filepath"

	"ncmirtools/internal/config"
	"ncmirtools/internal/transport"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding section is present.
func RunAll(ctx context.Context, cfg *config.Config, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.HasSection(config.SectionDataServer) {
		if settings, err := cfg.DataServerSettings(); err != nil {
			results = append(results, Result{Name: "Data directory", Detail: err.Error()})
		} else {
			results = append(results, CheckDirectoryAccess("Data directory", settings.DataDir, false))
		}
		if ledgerPath, _, err := cfg.TransferLogPaths(); err != nil {
			results = append(results, Result{Name: "Transfer log directory", Detail: err.Error()})
		} else {
			results = append(results, CheckDirectoryAccess("Transfer log directory", filepath.Dir(ledgerPath), true))
		}
	}

	if cfg.HasSection(config.SectionSFTP) {
		tr, err := transport.NewSFTPFromConfig(cfg, logger)
		if err != nil {
			results = append(results, Result{Name: sftpCheckName, Detail: err.Error()})
		} else {
			results = append(results, CheckSFTP(ctx, tr))
		}
	}

	if cfg.HasSection(config.SectionCIL) {
		results = append(results, CheckCIL(ctx, cfg.CILSettings().RestURL, nil))
	}

	if cfg.HasSection(config.SectionDatabase) {
		results = append(results, CheckCatalog(ctx, cfg, logger))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
