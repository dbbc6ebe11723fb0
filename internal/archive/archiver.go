package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"payslipsync/internal/reconcile"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of archiving one pending payslip.
type Result struct {
	Pending reconcile.Pending
	// Name is the archive filename the payslip was uploaded as.
	Name string
	// Path is the local artifact; it is gone when Err is nil.
	Path string
	Err  error
}

// Archiver uploads downloaded payslips under their canonical names.
type Archiver struct {
	store       ObjectStore
	folder      string
	prefix      string
	workDir     string
	concurrency int
	logger      *zap.Logger
}

// NewArchiver creates an Archiver reading artifacts from workDir. At most
// concurrency uploads run at once; zero or less means no limit.
func NewArchiver(store ObjectStore, folder, prefix, workDir string, concurrency int, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = -1
	}
	return &Archiver{
		store:       store,
		folder:      folder,
		prefix:      prefix,
		workDir:     workDir,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ArchiveAll uploads every pending payslip concurrently and removes each
// local artifact after its upload succeeded. A failed upload does not stop
// the others; results are index-aligned with pending and the returned error
// combines every failure.
func (a *Archiver) ArchiveAll(ctx context.Context, pending []reconcile.Pending) ([]Result, error) {
	results := make([]Result, len(pending))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, p := range pending {
		g.Go(func() error {
			results[i] = a.archive(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	var err error
	for _, r := range results {
		err = multierr.Append(err, r.Err)
	}
	return results, err
}

func (a *Archiver) archive(ctx context.Context, p reconcile.Pending) Result {
	res := Result{
		Pending: p,
		Name:    reconcile.FileName(a.prefix, p.Period),
		Path:    filepath.Join(a.workDir, reconcile.ArtifactName(p.Index)),
	}

	if err := a.store.UploadObject(ctx, a.folder, res.Name, res.Path); err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", ErrUpload, res.Name, err)
		a.logger.Error("upload failed, keeping local file",
			zap.String("name", res.Name),
			zap.String("path", res.Path),
			zap.Error(err))
		return res
	}

	if err := os.Remove(res.Path); err != nil {
		a.logger.Warn("uploaded but could not remove local file", zap.String("path", res.Path), zap.Error(err))
	}
	a.logger.Info("payslip archived", zap.String("name", res.Name), zap.String("label", p.Label))
	return res
}
