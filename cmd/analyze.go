package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/handicap/internal/adapters/tables"
	service "github.com/okian/handicap/internal/app"
	"github.com/okian/handicap/internal/config"
	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/pkg/logger"
)

var (
	errNoFieldFile = errors.New("no field file: pass --field or set HANDICAP_FIELD_FILE")
	errRacesFailed = errors.New("races failed")
)

type analyzeOptions struct {
	field      string
	pastStarts string
	sheet      string
	store      string
	out        string
}

func newAnalyzeCommand(c *cli) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse every race of a card and store the reports",
		Long: `Analyse every race of a card and store one report per race.

The field table is read from CSV, XLSX or JSON records. Past starts come from
--past-starts when given, otherwise from the numbered past-performance
columns of the field table. One line is printed per race.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, c, opts)
		},
	}

	cmd.Flags().StringVar(&opts.field, "field", "", "Field table (.csv, .xlsx, .json)")
	cmd.Flags().StringVar(&opts.pastStarts, "past-starts", "", "Past-starts table (.csv, .xlsx, .json)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Workbook sheet read from XLSX inputs")
	cmd.Flags().StringVar(&opts.store, "store", "", "Report store: file, sqlite or memory")
	cmd.Flags().StringVar(&opts.out, "out", "", "Reports directory (file) or database path (sqlite)")

	return cmd
}

// apply overrides cfg with the flags that were set.
func (o analyzeOptions) apply(cfg *config.Config) error {
	if o.field != "" {
		cfg.FieldFile = o.field
	}
	if o.pastStarts != "" {
		cfg.PastStartsFile = o.pastStarts
	}
	if o.sheet != "" {
		cfg.Sheet = o.sheet
	}
	if o.store != "" {
		cfg.ReportStore = o.store
	}
	if o.out != "" {
		switch cfg.ReportStore {
		case config.StoreSQLite:
			cfg.SQLitePath = o.out
		default:
			cfg.ReportsDir = o.out
		}
	}
	if cfg.FieldFile == "" {
		return errNoFieldFile
	}
	return cfg.Validate()
}

func runAnalyze(cmd *cobra.Command, c *cli, opts analyzeOptions) error {
	ctx := cmd.Context()
	cfg := *c.cfg
	if err := opts.apply(&cfg); err != nil {
		return err
	}

	field, starts, err := readCard(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("open report store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			c.log.Error(ctx, "close report store", logger.Error(err))
		}
	}()

	svc := service.New(service.WithConfig(&cfg), service.WithStore(store), service.WithLogger(c.log))
	outcomes, err := svc.AnalyzeCard(ctx, field, starts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, o := range outcomes {
		if o.Err == nil && o.Report != nil {
			o.Err = store.Save(ctx, *o.Report)
		}
		if o.Err != nil {
			failed++
		}
		printOutcome(out, o)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errRacesFailed, failed, len(outcomes))
	}
	return nil
}

// readCard loads the field and past-starts tables named by cfg.
func readCard(cfg config.Config) (model.Field, model.PastStarts, error) {
	fieldTable, err := tables.ReadFile(cfg.FieldFile, cfg.Sheet)
	if err != nil {
		return model.Field{}, model.PastStarts{}, err
	}
	field, err := tables.DecodeField(fieldTable)
	if err != nil {
		return model.Field{}, model.PastStarts{}, fmt.Errorf("%s: %w", cfg.FieldFile, err)
	}

	if cfg.PastStartsFile == "" {
		starts, err := tables.DecodeWidePastStarts(fieldTable)
		if err != nil {
			return model.Field{}, model.PastStarts{}, fmt.Errorf("%s: %w", cfg.FieldFile, err)
		}
		return field, starts, nil
	}
	startsTable, err := tables.ReadFile(cfg.PastStartsFile, cfg.Sheet)
	if err != nil {
		return model.Field{}, model.PastStarts{}, err
	}
	starts, err := tables.DecodePastStarts(startsTable)
	if err != nil {
		return model.Field{}, model.PastStarts{}, fmt.Errorf("%s: %w", cfg.PastStartsFile, err)
	}
	return field, starts, nil
}

func printOutcome(w io.Writer, o service.Outcome) {
	switch {
	case o.Err != nil:
		fmt.Fprintf(w, "%s\tfailed\t%v\n", o.Race, o.Err)
	case o.Skipped:
		fmt.Fprintf(w, "%s\tskipped\t%s\n", o.Race, o.Reason)
	default:
		s := o.Report.Summary
		fmt.Fprintf(w, "%s\treported\tgroup1=%s pace=%s\n", o.Race, strings.Join(s.Groups[model.Group1], ","), s.PaceScenario)
	}
}
