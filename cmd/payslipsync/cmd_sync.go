package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payslipsync/cmd/payslipsync/ui"
	"payslipsync/internal/archive"
	"payslipsync/internal/browser"
	"payslipsync/internal/history"
	"payslipsync/internal/logging"
	"payslipsync/internal/pipeline"
	"payslipsync/internal/portal"
	"payslipsync/internal/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCmd performs a full synchronization
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Download and archive every payslip missing from the archive",
	RunE:  runSync,
}

// planCmd is a dry run
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the payslips a run would archive, without downloading",
	RunE:  runPlan,
}

func runSync(cmd *cobra.Command, args []string) error {
	return withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline) error {
		report, err := p.Run(ctx)
		if report != nil {
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderReport(ui.DefaultStyles(), report))
		}
		return err
	})
}

func runPlan(cmd *cobra.Command, args []string) error {
	return withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline) error {
		report, err := p.Plan(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderPlan(ui.DefaultStyles(), report, cfg.Archive.Prefix))
		return nil
	})
}

// withPipeline assembles a pipeline over a fresh browser session, runs fn
// and tears the session down.
func withPipeline(cmd *cobra.Command, fn func(context.Context, *pipeline.Pipeline) error) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	sessions := browser.NewSessionManager(cfg.Browser, logging.For(logger, logging.CategoryBrowser))
	if err := sessions.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := sessions.Shutdown(shutdownCtx); err != nil {
			logger.Warn("browser shutdown failed", zap.Error(err))
		}
	}()

	tab, err := sessions.NewTab(ctx)
	if err != nil {
		return err
	}

	deps := newDeps(tab)
	if cfg.History.DatabasePath != "" {
		store, err := history.Open(cfg.History.DatabasePath)
		if err != nil {
			logging.For(logger, logging.CategoryHistory).Warn("history disabled", zap.Error(err))
		} else {
			defer store.Close()
			deps.History = store
		}
	}

	runTimeout := timeout
	if runTimeout == 0 {
		runTimeout = cfg.GetRunTimeout()
	}
	p := pipeline.New(deps, pipeline.Options{Timeout: runTimeout}, logging.For(logger, logging.CategoryPipeline))
	return fn(ctx, p)
}

// newDeps wires the portal client on page and the Drive archive.
func newDeps(page browser.Page) pipeline.Deps {
	archiveLogger := logging.For(logger, logging.CategoryArchive)
	store := archive.NewDriveStore(cfg.Archive.CredentialsFile, archiveLogger)

	return pipeline.Deps{
		Portal:     portal.NewClient(page, cfg.PortalSettings(), logging.For(logger, logging.CategoryPortal)),
		Lister:     archive.NewLister(store, cfg.Archive.Folder, cfg.Archive.Prefix, archiveLogger),
		Archiver:   archive.NewArchiver(store, cfg.Archive.Folder, cfg.Archive.Prefix, cfg.WorkDir, cfg.Archive.Concurrency, archiveLogger),
		Reconciler: reconcile.New(logging.For(logger, logging.CategoryReconcile)),
	}
}
