package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"account-explorer/internal/metrics"
	"account-explorer/internal/table"
	"account-explorer/internal/view"
)

// ExportCommandAction writes the filtered table as CSV or XLSX. CSV goes to
// stdout unless --out is given; XLSX always needs a file.
func ExportCommandAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	format := strings.ToLower(cmd.String("format"))
	out := cmd.String("out")

	var render func(table.Table) ([]byte, error)
	switch format {
	case "csv":
		render = table.CSVBytes
	case "xlsx":
		render = table.XLSXBytes
		if out == "" || out == "-" {
			out = table.XLSXFileName
		}
	default:
		return fmt.Errorf("unknown export format %q (want csv or xlsx)", format)
	}

	ds, err := rt.loader.Load(ctx, rt.source)
	if err != nil {
		return err
	}
	v := view.Build(ctx, ds, selectionFromFlags(cmd), view.Options{Surface: "cli", SkipMap: true})

	data, err := render(v.Table)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	metrics.RecordExport(format)

	if out == "" || out == "-" {
		_, err = writer(cmd).Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	rt.logger.Info("export written",
		zap.String("path", out),
		zap.String("format", format),
		zap.Int("rows", v.Count))
	return nil
}

func ExportCommandBuilder() *cli.Command {
	flags := append(newSelectionFlags(),
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "csv", Usage: "csv or xlsx"},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file; CSV defaults to stdout"},
	)
	return &cli.Command{
		Name:      "export",
		Usage:     "write the filtered table to CSV or Excel",
		UsageText: "explorer export [filters] [--format csv|xlsx] [--out FILE]",
		Flags:     flags,
		Action:    ExportCommandAction,
	}
}
