// Package pipeline runs one synchronization pass: list both inventories,
// reconcile them, download what is missing and archive it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payslipsync/internal/archive"
	"payslipsync/internal/history"
	"payslipsync/internal/reconcile"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Portal is the page-bound side of a run.
type Portal interface {
	Open(ctx context.Context) error
	ListDocuments(ctx context.Context) ([]reconcile.RemoteRow, error)
	Acquire(ctx context.Context, index int) (string, error)
}

// ArchiveLister lists the names already in the archive.
type ArchiveLister interface {
	List(ctx context.Context) ([]string, error)
}

// Archiver uploads acquired payslips.
type Archiver interface {
	ArchiveAll(ctx context.Context, pending []reconcile.Pending) ([]archive.Result, error)
}

// Recorder stores archived entries.
type Recorder interface {
	Record(ctx context.Context, entries ...history.Entry) error
}

// Deps are the collaborators of a Pipeline. History and Reconciler are
// optional.
type Deps struct {
	Portal     Portal
	Lister     ArchiveLister
	Archiver   Archiver
	History    Recorder
	Reconciler *reconcile.Reconciler
}

// Options tune a Pipeline.
type Options struct {
	// Timeout bounds a whole pass. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// Pipeline sequences one pass over its Deps.
type Pipeline struct {
	deps       Deps
	opts       Options
	reconciler *reconcile.Reconciler
	logger     *zap.Logger
}

// New creates a Pipeline.
func New(deps Deps, opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	reconciler := deps.Reconciler
	if reconciler == nil {
		reconciler = reconcile.New(logger)
	}
	return &Pipeline{
		deps:       deps,
		opts:       opts,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Report summarizes a pass.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time

	RemoteRows   int
	ArchiveNames int
	Pending      []reconcile.Pending
	Acquired     int
	Results      []archive.Result
}

// Uploaded counts the pending payslips archived successfully.
func (r *Report) Uploaded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts the pending payslips whose upload failed.
func (r *Report) Failed() int {
	return len(r.Results) - r.Uploaded()
}

// Plan logs in, lists both inventories and reconciles them without
// downloading anything.
func (p *Pipeline) Plan(ctx context.Context) (*Report, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	report, logger := p.begin()
	defer func() { report.Finished = time.Now() }()

	if err := p.plan(ctx, report, logger); err != nil {
		return report, err
	}
	logger.Info("plan complete", zap.Int("pending", len(report.Pending)))
	return report, nil
}

// Run performs a full pass. Acquisition stops at the first failure;
// artifacts already written are left for the next run. Upload failures are
// per document and are returned together once every upload has finished.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	report, logger := p.begin()
	defer func() { report.Finished = time.Now() }()

	if p.deps.Archiver == nil {
		return report, errors.New("pipeline: archiver is required")
	}
	if err := p.plan(ctx, report, logger); err != nil {
		return report, err
	}
	if len(report.Pending) == 0 {
		logger.Info("archive is up to date")
		return report, nil
	}

	for _, pending := range report.Pending {
		path, err := p.deps.Portal.Acquire(ctx, pending.Index)
		if err != nil {
			return report, fmt.Errorf("acquire %q: %w", pending.Label, err)
		}
		report.Acquired++
		logger.Debug("payslip acquired", zap.Int("index", pending.Index), zap.String("path", path))
	}

	results, archiveErr := p.deps.Archiver.ArchiveAll(ctx, report.Pending)
	report.Results = results
	p.record(ctx, report, logger)

	logger.Info("run complete",
		zap.Int("uploaded", report.Uploaded()),
		zap.Int("failed", report.Failed()))
	return report, archiveErr
}

func (p *Pipeline) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.Timeout > 0 {
		return context.WithTimeout(ctx, p.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func (p *Pipeline) begin() (*Report, *zap.Logger) {
	report := &Report{RunID: uuid.NewString(), Started: time.Now()}
	return report, p.logger.With(zap.String("run", report.RunID))
}

// plan fills the inventory part of report. The archive listing does not
// depend on the portal and runs alongside login and table listing.
func (p *Pipeline) plan(ctx context.Context, report *Report, logger *zap.Logger) error {
	if p.deps.Portal == nil || p.deps.Lister == nil {
		return errors.New("pipeline: portal and archive lister are required")
	}

	var rows []reconcile.RemoteRow
	var names []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := p.deps.Portal.Open(gctx); err != nil {
			return fmt.Errorf("open portal: %w", err)
		}
		var err error
		rows, err = p.deps.Portal.ListDocuments(gctx)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		names, err = p.deps.Lister.List(gctx)
		if err != nil {
			return fmt.Errorf("list archive: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("inventory failed", zap.Error(err))
		return err
	}

	report.RemoteRows = len(rows)
	report.ArchiveNames = len(names)
	report.Pending = p.reconciler.Reconcile(rows, names)
	logger.Debug("inventories reconciled",
		zap.Int("remote_rows", report.RemoteRows),
		zap.Int("archive_names", report.ArchiveNames),
		zap.Int("pending", len(report.Pending)))
	return nil
}

// record stores successful uploads. The ledger is informational, so a failed
// write is only logged.
func (p *Pipeline) record(ctx context.Context, report *Report, logger *zap.Logger) {
	if p.deps.History == nil {
		return
	}
	var entries []history.Entry
	for _, res := range report.Results {
		if res.Err != nil {
			continue
		}
		entries = append(entries, history.Entry{
			RunID:  report.RunID,
			Index:  res.Pending.Index,
			Label:  res.Pending.Label,
			Period: res.Pending.Period.String(),
			Name:   res.Name,
		})
	}
	if err := p.deps.History.Record(ctx, entries...); err != nil {
		logger.Warn("failed to record history", zap.Error(err))
	}
}
