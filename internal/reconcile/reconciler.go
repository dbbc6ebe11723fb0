package reconcile

import (
	"sort"

	"go.uber.org/zap"
)

// PayslipMarker is the third-column text identifying a payslip row.
const PayslipMarker = "Libro unico"

// RemoteRow is one row of the portal's documents table. Label is nil for rows
// that are not payslips; those rows still occupy their Index.
type RemoteRow struct {
	Index int
	Label *string
}

// Pending is a portal row whose period is missing from the archive.
type Pending struct {
	Index  int
	Label  string
	Period PayPeriod
}

// Reconciler compares the portal inventory with the archive inventory.
type Reconciler struct {
	logger *zap.Logger
}

// New creates a Reconciler. A nil logger disables logging.
func New(logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{logger: logger}
}

// Reconcile returns the rows whose pay period has no exact match among the
// periods derived from archiveNames, in ascending row index order. Rows
// without a label or with an unreadable date are never selected.
func (r *Reconciler) Reconcile(rows []RemoteRow, archiveNames []string) []Pending {
	archived := make(map[PayPeriod]struct{}, len(archiveNames))
	for _, name := range archiveNames {
		archived[PeriodFromArchiveName(name)] = struct{}{}
	}

	ordered := make([]RemoteRow, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var pending []Pending
	for _, row := range ordered {
		if row.Label == nil {
			continue
		}
		period, ok := PeriodFromLabel(*row.Label)
		if !ok {
			r.logger.Debug("skipping row with unreadable date",
				zap.Int("index", row.Index),
				zap.String("label", *row.Label))
			continue
		}
		if _, found := archived[period]; found {
			continue
		}
		pending = append(pending, Pending{Index: row.Index, Label: *row.Label, Period: period})
	}

	if len(pending) == 0 {
		return []Pending{}
	}

	labels := make([]string, len(pending))
	for i, p := range pending {
		labels[i] = p.Label
	}
	r.logger.Info("documents not available on archive", zap.Strings("labels", labels))
	return pending
}
