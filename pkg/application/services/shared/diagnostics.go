package shared

import (
	"go.uber.org/zap"

	"github.com/vsinha/lineage/pkg/application/dto"
	"github.com/vsinha/lineage/pkg/domain/entities"
	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
)

// Diagnostics collects non-fatal data problems met during a run and logs each
// one as it is recorded. Entries keep recording order.
type Diagnostics struct {
	logger  *zap.Logger
	entries []dto.Diagnostic
}

// NewDiagnostics creates a collector; a nil logger discards log output
func NewDiagnostics(logger *zap.Logger) *Diagnostics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Diagnostics{logger: logger}
}

// Record stores err against an instance and cohort, either of which may be zero
func (d *Diagnostics) Record(err error, key entities.InstanceKey, cohort entities.OrderID) {
	if err == nil {
		return
	}
	code := apperrors.GetCode(err)
	entry := dto.Diagnostic{
		Code:    code,
		Message: err.Error(),
		Cohort:  string(cohort),
	}
	if !key.IsZero() {
		entry.Key = key.String()
	}
	d.entries = append(d.entries, entry)

	d.logger.Warn("lineage diagnostic",
		zap.String("code", code),
		zap.String("serial", key.Serial),
		zap.String("order", string(key.OrderID)),
		zap.String("package", key.PackageID),
		zap.String("cohort", string(cohort)),
		zap.Error(err),
	)
}

// DataIntegrity records a DATA_INTEGRITY condition
func (d *Diagnostics) DataIntegrity(key entities.InstanceKey, cohort entities.OrderID, format string, args ...interface{}) {
	d.Record(apperrors.DataIntegrity(format, args...), key, cohort)
}

// MissingDate records a MISSING_DATE condition
func (d *Diagnostics) MissingDate(key entities.InstanceKey, cohort entities.OrderID, format string, args ...interface{}) {
	d.Record(apperrors.MissingDate(format, args...), key, cohort)
}

// Entries returns a copy of the recorded diagnostics
func (d *Diagnostics) Entries() []dto.Diagnostic {
	entries := make([]dto.Diagnostic, len(d.entries))
	copy(entries, d.entries)
	return entries
}

// Count returns how many diagnostics carry code
func (d *Diagnostics) Count(code string) int {
	n := 0
	for _, entry := range d.entries {
		if entry.Code == code {
			n++
		}
	}
	return n
}

// Len returns the number of recorded diagnostics
func (d *Diagnostics) Len() int {
	return len(d.entries)
}
