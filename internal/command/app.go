package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"account-explorer/internal/config"
	"account-explorer/internal/dataset"
	"account-explorer/internal/geocode"
	"account-explorer/internal/logging"
	"account-explorer/internal/models"
)

// Exit codes returned by realMain.
const (
	ExitOK          = 0
	ExitUnavailable = 1
	ExitFailure     = 2
)

func NewGlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to explorer.yaml",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "account workbook: file path, s3://bucket/key or postgres:// DSN",
		},
		&cli.StringFlag{
			Name:  "sheet",
			Usage: "sheet (or table, for postgres) holding the accounts",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}
}

// InitApp builds the root command. Output of the query and export commands
// goes to w.
func InitApp(w io.Writer) *cli.Command {
	app := &cli.Command{
		Name:   "explorer",
		Usage:  "Strategic account ownership explorer",
		Flags:  NewGlobalFlags(),
		Writer: w,
		// Account names carry commas; repeat the flag instead.
		DisableSliceFlagSeparator: true,
	}

	app.Commands = append(app.Commands,
		ServeCommandBuilder(),
		QueryCommandBuilder(),
		ExportCommandBuilder(),
	)

	// Subcommands reapply their own setting when they run.
	for _, cmd := range app.Commands {
		cmd.DisableSliceFlagSeparator = true
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}
	return app
}

// Run executes args and maps the outcome to a process exit code.
func Run(ctx context.Context, args []string, w io.Writer) int {
	if err := InitApp(w).Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var loadErr *dataset.DataLoadError
		if errors.As(err, &loadErr) {
			return ExitUnavailable
		}
		return ExitFailure
	}
	return ExitOK
}

// runtime is what every command needs once flags and config are resolved.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	source dataset.Source
	loader *dataset.Loader
}

func setup(ctx context.Context, cmd *cli.Command) (*runtime, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if v := cmd.String("source"); v != "" {
		cfg.Source = v
	}
	if v := cmd.String("sheet"); v != "" {
		cfg.Sheet = v
	}
	if v := cmd.String("log-level"); v != "" {
		cfg.Log.Level = v
	}

	logger := logging.Must(cfg.Log)
	src, err := dataset.SourceFor(ctx, cfg.Source, cfg.Sheet, dataset.Options{
		S3Region:   cfg.S3.Region,
		S3Endpoint: cfg.S3.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved configuration",
		zap.String("config_file", cfg.File),
		zap.String("source", src.Identity()))

	return &runtime{
		cfg:    cfg,
		logger: logger,
		source: src,
		loader: dataset.NewLoader(logger),
	}, nil
}

func (rt *runtime) geocoder() *geocode.Cache {
	provider := geocode.NewGeoNamesProvider(rt.cfg.GeoNames.Path,
		geocode.WithDownloadURL(rt.cfg.GeoNames.DownloadURL),
		geocode.WithLogger(rt.logger))
	return geocode.NewCache(provider, rt.logger)
}

func newSelectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "customer", Usage: "keep only these customers (repeatable)"},
		&cli.StringSliceFlag{Name: "sam", Usage: "keep only these WSC_SAM owners (repeatable)"},
		&cli.StringSliceFlag{Name: "state", Usage: "keep only these states (repeatable)"},
		&cli.StringSliceFlag{Name: "zip", Usage: "keep only these ZIP codes (repeatable)"},
		&cli.StringFlag{Name: "search", Usage: "case-insensitive text matched against every column"},
		&cli.StringSliceFlag{Name: "stakeholder", Usage: "extra stakeholder column to include (repeatable)"},
	}
}

func selectionFromFlags(cmd *cli.Command) models.FilterSelection {
	var sel models.FilterSelection
	for _, d := range models.Dimensions {
		sel.Set(d, cmd.StringSlice(d.String()))
	}
	sel.Search = cmd.String("search")
	sel.SetStakeholders(cmd.StringSlice("stakeholder"))
	return sel
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
