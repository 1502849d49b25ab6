package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"account-explorer/internal/filter"
	"account-explorer/internal/models"
	"account-explorer/internal/view"
)

// QueryCommandAction prints the filtered table, or with --candidates the
// values a dimension would offer under the given filters.
func QueryCommandAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	ds, err := rt.loader.Load(ctx, rt.source)
	if err != nil {
		return err
	}
	sel := selectionFromFlags(cmd)
	w := writer(cmd)

	if name := cmd.String("candidates"); name != "" {
		dim, err := models.ParseDimension(name)
		if err != nil {
			return err
		}
		for _, v := range filter.Candidates(ds, dim, sel) {
			fmt.Fprintln(w, v)
		}
		return nil
	}

	v := view.Build(ctx, ds, sel, view.Options{Surface: "cli", SkipMap: true})
	if cmd.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v.Table)
	}

	fmt.Fprintf(w, "Showing %s of %s records\n", humanize.Comma(int64(v.Count)), humanize.Comma(int64(v.TotalRows)))
	if v.Count == 0 {
		return nil
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		Headers(v.Table.Columns...).
		BorderHeader(false).
		Rows(v.Table.Rows...)
	fmt.Fprintln(w, t)
	return nil
}

func QueryCommandBuilder() *cli.Command {
	flags := append(newSelectionFlags(),
		&cli.StringFlag{Name: "candidates", Usage: "list candidate values of a dimension (customer, sam, state, zip)"},
		&cli.BoolFlag{Name: "json", Usage: "print the table as JSON", HideDefault: true},
	)
	return &cli.Command{
		Name:      "query",
		Usage:     "filter accounts and print the table",
		UsageText: "explorer query [--customer NAME]... [--state ST]... [--search TEXT] [--candidates DIM]",
		Flags:     flags,
		Action:    QueryCommandAction,
	}
}
