package importer

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
)

const DefaultBatchSize = 100

// Record is one transformed row ready to write. Index is the 1-based
// position of the row in ImportSpec.Rows.
type Record struct {
	Index  int
	Values map[string]any
}

// Writer persists batches. WriteBatch must be atomic: either every record
// is written or none is.
type Writer interface {
	Purge(ctx context.Context, table string) error
	WriteBatch(ctx context.Context, table string, records []Record, strategy ConflictStrategy, primaryKeys []string) error
}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult is produced once per Run.
type ImportResult struct {
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors,omitempty"`
	// Stopped is set when the fail strategy or cancellation ended the run
	// before every batch was attempted.
	Stopped bool `json:"stopped,omitempty"`
}

func (r *ImportResult) Success() bool {
	return r.Failed == 0 && !r.Stopped
}

func (r *ImportResult) fail(row int, msg string) {
	r.Failed++
	r.Errors = append(r.Errors, RowError{Row: row, Message: msg})
}

func (r *ImportResult) sortErrors() {
	slices.SortStableFunc(r.Errors, func(a, b RowError) int {
		return cmp.Compare(a.Row, b.Row)
	})
}

// BatchProgress is reported after each batch.
type BatchProgress struct {
	Batch    int
	Rows     int
	Imported int
	Failed   int
	Total    int
}

type Options struct {
	BatchSize int
	OnBatch   func(BatchProgress)
	Logger    *slog.Logger
}

type Importer struct {
	w      Writer
	opts   Options
	logger *slog.Logger
}

func New(w Writer, opts Options) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{w: w, opts: opts, logger: logger}
}

// Run validates spec and imports its rows one batch at a time. Each batch
// commits on its own, so rows written before a failure or cancellation
// stay written. A returned error means the import did not start, or was
// cancelled; row level failures are reported in the result.
func (im *Importer) Run(ctx context.Context, spec *ImportSpec) (*ImportResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	strategy := spec.Strategy()
	result := &ImportResult{}
	defer result.sortErrors()

	if spec.DeleteExisting {
		if err := im.w.Purge(ctx, spec.Table); err != nil {
			return result, fmt.Errorf("failed to delete existing rows from %s: %w", spec.Table, err)
		}
		im.logger.Info("deleted existing rows", "table", spec.Table)
	}

	size := im.opts.BatchSize
	for start, batch := 0, 1; start < len(spec.Rows); start, batch = start+size, batch+1 {
		if err := ctx.Err(); err != nil {
			result.Stopped = true
			im.logger.Warn("import cancelled", "table", spec.Table, "batch", batch, "imported", result.Imported)
			return result, err
		}

		end := min(start+size, len(spec.Rows))
		stop := im.runBatch(ctx, spec, strategy, start, end, result)

		if im.opts.OnBatch != nil {
			im.opts.OnBatch(BatchProgress{
				Batch:    batch,
				Rows:     end - start,
				Imported: result.Imported,
				Failed:   result.Failed,
				Total:    len(spec.Rows),
			})
		}
		if stop {
			result.Stopped = true
			im.logger.Warn("import stopped at first failed batch", "table", spec.Table, "batch", batch)
			break
		}
	}

	im.logger.Info("import finished",
		"table", spec.Table,
		"strategy", string(strategy),
		"imported", result.Imported,
		"failed", result.Failed)
	return result, nil
}

// runBatch transforms and writes rows[start:end]. It reports whether the
// run must stop.
func (im *Importer) runBatch(ctx context.Context, spec *ImportSpec, strategy ConflictStrategy, start, end int, result *ImportResult) bool {
	records := make([]Record, 0, end-start)
	for i := start; i < end; i++ {
		values, err := Transform(spec, i+1, spec.Rows[i])
		if err != nil {
			// the row is left out of the batch; only a failed write stops a
			// fail-strategy run
			result.fail(i+1, err.Error())
			continue
		}
		records = append(records, Record{Index: i + 1, Values: values})
	}
	if len(records) == 0 {
		return false
	}

	if err := im.w.WriteBatch(ctx, spec.Table, records, strategy, spec.PrimaryKeys); err != nil {
		im.logger.Error("batch failed", "table", spec.Table, "first_row", records[0].Index, "rows", len(records), "error", err)
		for _, r := range records {
			result.fail(r.Index, err.Error())
		}
		return strategy == ConflictFail
	}
	result.Imported += len(records)
	return false
}
