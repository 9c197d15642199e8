package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uiprogress"
	"github.com/lockplane/schemaguard/internal/documents"
	"github.com/lockplane/schemaguard/internal/importer"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-load rows into a table",
	Long: `Load the rows of an import spec into a table. Each source column is mapped
to a target column and coerced to its type; several source columns can be
collected into one array column. Rows are written in batches, each in its
own transaction, and duplicate keys are handled by the import spec's conflict
strategy: fail, skip or upsert.`,
	Example: `  schemaguard import --spec dogs.json
  schemaguard import --spec dogs.json --batch-size 500 --environment staging`,
	RunE: runImport,
}

var (
	importSpec       string
	importBatchSize  int
	importNoProgress bool
	importFormat     string
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importSpec, "spec", "s", "", "JSON import spec (required)")
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", 0, "Rows per transaction (default from schemaguard.toml)")
	importCmd.Flags().BoolVar(&importNoProgress, "no-progress", false, "Do not draw a progress bar")
	importCmd.Flags().StringVar(&importFormat, "format", "text", "Output format: text or json")
	_ = importCmd.MarkFlagRequired("spec")
}

func runImport(cmd *cobra.Command, args []string) error {
	if importFormat != "text" && importFormat != "json" {
		return fmt.Errorf("unknown --format %q (use text or json)", importFormat)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	spec, err := documents.LoadImportSpec(importSpec)
	if err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	conn, err := connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeDB(conn.db)

	writerOpts := []importer.WriterOption{importer.WithWriterLogger(importerOptions(cfg).Logger)}
	if cfg.Planner.Schema != "" {
		writerOpts = append(writerOpts, importer.WithSchema(cfg.Planner.Schema))
	}
	w := importer.NewSQLWriter(conn.db, conn.dialect, writerOpts...)

	opts := importerOptions(cfg)
	if importBatchSize > 0 {
		opts.BatchSize = importBatchSize
	}

	var progress *uiprogress.Progress
	if !importNoProgress && len(spec.Rows) > 0 {
		progress = uiprogress.New()
		progress.Out = cmd.ErrOrStderr()
		bar := progress.AddBar(len(spec.Rows)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return fmt.Sprintf("%s %d/%d", spec.Table, b.Current(), len(spec.Rows))
		})
		opts.OnBatch = func(p importer.BatchProgress) {
			_ = bar.Set(p.Imported + p.Failed)
		}
		progress.Start()
	}

	result, runErr := importer.New(w, opts).Run(cmd.Context(), spec)
	if progress != nil {
		progress.Stop()
	}
	if result == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	if importFormat == "json" {
		if err := writeJSON(out, result); err != nil {
			return err
		}
	} else {
		writeImportReport(out, spec.Table, result)
	}

	if runErr != nil {
		return runErr
	}
	if !result.Success() {
		return fmt.Errorf("import into %s finished with %d failed row(s)", spec.Table, result.Failed)
	}
	return nil
}

const maxReportedRowErrors = 20

func writeImportReport(out io.Writer, table string, result *importer.ImportResult) {
	_, _ = fmt.Fprintf(out, "Imported %d row(s) into %s, %d failed\n", result.Imported, table, result.Failed)
	if result.Stopped {
		_, _ = fmt.Fprintln(out, "Import stopped early; rows in later batches were not attempted.")
	}
	for i, e := range result.Errors {
		if i == maxReportedRowErrors {
			_, _ = fmt.Fprintf(out, "  ... and %d more\n", len(result.Errors)-i)
			break
		}
		_, _ = fmt.Fprintf(out, "  row %d: %s\n", e.Row, strings.TrimSpace(e.Message))
	}
}
