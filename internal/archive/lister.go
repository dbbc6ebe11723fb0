package archive

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Lister lists the archived payslip names of the configured folder.
type Lister struct {
	store  ObjectStore
	folder string
	prefix string
	logger *zap.Logger
}

// NewLister creates a Lister for the payslips named prefix... in folder.
func NewLister(store ObjectStore, folder, prefix string, logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{store: store, folder: folder, prefix: prefix, logger: logger}
}

// List returns the archived names starting with the prefix, in the store's
// order. No match is an empty slice.
func (l *Lister) List(ctx context.Context) ([]string, error) {
	objects, err := l.store.ListObjects(ctx, l.folder, l.prefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(objects))
	for _, name := range objects {
		if strings.HasPrefix(name, l.prefix) {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		l.logger.Debug("no files found", zap.String("folder", l.folder), zap.String("prefix", l.prefix))
	} else {
		l.logger.Debug("files found", zap.Strings("names", names))
	}
	return names, nil
}
