// Package reconcile derives pay periods from portal labels and archive
// filenames and computes which payslips still have to be archived.
package reconcile

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Day numbers a PayPeriod can carry.
const (
	FirstHalf  = 1
	SecondHalf = 15
)

// aggSuffix marks an archive name covering the second half of its month.
const aggSuffix = "_AGG"

var (
	// DD-MM-YYYY followed by a description.
	labelPattern = regexp.MustCompile(`^\s*(\d{2})-(\d{2})-(\d{4})\s`)

	// ..._YY_MM[_AGG].ext
	archivePattern = regexp.MustCompile(`.*_(\d{2})_(\d{2})(_AGG)?\..*`)
)

// PayPeriod is the half month a payroll document covers. It is only used as a
// comparison key; two periods are the same iff all fields are equal.
type PayPeriod struct {
	Year  int
	Month time.Month
	Day   int
}

// NewPayPeriod builds a period the way a calendar date is built, so month 0
// of a year is December of the previous one.
func NewPayPeriod(year, month, day int) PayPeriod {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return PayPeriod{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// SecondHalf reports whether the period is the second half of its month.
func (p PayPeriod) SecondHalf() bool {
	return p.Day == SecondHalf
}

func (p PayPeriod) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", p.Year, int(p.Month), p.Day)
}

// PeriodFromLabel derives the pay period of a portal row label such as
// "20-03-2024 Cedolino". A label dated after the 15th covers the second half
// of the same month; a label dated on or before the 15th covers the first
// half of the previous month (payroll cut-off). ok is false when the label
// does not start with a DD-MM-YYYY date.
func PeriodFromLabel(label string) (period PayPeriod, ok bool) {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return PayPeriod{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if day > 15 {
		return NewPayPeriod(year, month, SecondHalf), true
	}
	return NewPayPeriod(year, month-1, FirstHalf), true
}

// PeriodFromArchiveName derives the pay period of an archived file named
// <prefix>_<YY>_<MM>[_AGG].<ext>. Names that do not follow the grammar are
// not rejected: every component that cannot be read defaults to 1, which
// yields a best-effort period.
func PeriodFromArchiveName(name string) PayPeriod {
	yy, mm, day := 1, 1, FirstHalf
	if m := archivePattern.FindStringSubmatch(name); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			yy = v
		}
		if v, err := strconv.Atoi(m[2]); err == nil {
			mm = v
		}
		if m[3] == aggSuffix {
			day = SecondHalf
		}
	}
	return NewPayPeriod(2000+yy, mm, day)
}

// FileName returns the canonical archive name <prefix>_<YY>_<MM>[_AGG].pdf
// for a period.
func FileName(prefix string, p PayPeriod) string {
	suffix := ""
	if p.SecondHalf() {
		suffix = aggSuffix
	}
	return fmt.Sprintf("%s_%02d_%02d%s.pdf", prefix, p.Year%100, int(p.Month), suffix)
}

// ArtifactName is the local file name a downloaded row is stored under
// until it is archived.
func ArtifactName(index int) string {
	return fmt.Sprintf("output%d.pdf", index)
}
