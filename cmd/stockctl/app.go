package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/tshirt-stock/internal/bootstrap"
	"github.com/andresuchdata/tshirt-stock/internal/config"
	"github.com/andresuchdata/tshirt-stock/internal/domain"
	"github.com/andresuchdata/tshirt-stock/internal/importer"
	"github.com/andresuchdata/tshirt-stock/internal/service"
	"github.com/andresuchdata/tshirt-stock/pkg/logger"
)

const inventoryKey = "inventory"

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "stockctl",
		Usage:     "Import and inspect T-shirt inventory snapshots",
		Writer:    out,
		ErrWriter: out,
		// main decides the exit status.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-file",
				Usage:   "Path of the inventory JSON document",
				EnvVars: []string{"INVENTORY_DATA_FILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import spreadsheet exports (.xlsx, .csv)",
				ArgsUsage: "<files...>",
				Before:    loadInventory,
				Action:    runImport,
			},
			{
				Name:  "import-drive",
				Usage: "Import every spreadsheet in a Google Drive folder",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "folder",
						Usage:   "Drive folder ID or path (defaults to GOOGLE_DRIVE_FOLDER_ID)",
						EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"},
					},
				},
				Before: loadInventory,
				Action: runImportDrive,
			},
			{
				Name:  "show",
				Usage: "Show the snapshot for a date, or the edit baseline when none is stored",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "date",
						Usage:    "Date in YYYY-MM-DD",
						Required: true,
					},
				},
				Before: loadInventory,
				Action: runShow,
			},
			{
				Name:  "history",
				Usage: "Print stock history with per-row totals",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "variant",
						Usage: "Variant label or slug to filter by",
					},
				},
				Before: loadInventory,
				Action: runHistory,
			},
			{
				Name:   "catalog",
				Usage:  "List tracked variants and sizes",
				Action: runCatalog,
			},
		},
	}
}

func loadConfig(c *cli.Context) *config.Config {
	cfg := *config.Load()
	if path := c.String("data-file"); path != "" {
		cfg.Storage.DataFile = path
	}
	return &cfg
}

func loadInventory(c *cli.Context) error {
	svc, err := bootstrap.Inventory(c.Context, loadConfig(c))
	if err != nil {
		return err
	}
	c.App.Metadata = map[string]any{inventoryKey: svc}
	return nil
}

func inventory(c *cli.Context) *service.InventoryService {
	return c.App.Metadata[inventoryKey].(*service.InventoryService)
}

func runImport(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("no files given", 2)
	}
	uploads := make([]importer.Upload, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		uploads = append(uploads, importer.FileUpload(path))
	}

	report, err := inventory(c).ImportFiles(c.Context, uploads)
	if err != nil {
		return err
	}
	return printReport(c.App.Writer, report)
}

func runImportDrive(c *cli.Context) error {
	cfg := loadConfig(c)
	src, err := bootstrap.DriveSource(c.Context, cfg.Drive, c.String("folder"))
	if err != nil {
		return err
	}
	if src == nil {
		return cli.Exit("GOOGLE_DRIVE_CREDENTIALS_JSON is not set", 2)
	}

	report, err := inventory(c).ImportSource(c.Context, src)
	if err != nil {
		return err
	}
	return printReport(c.App.Writer, report)
}

func printReport(w io.Writer, report *service.ImportReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTATUS\tCELLS\tDETAIL")
	for _, f := range report.Files {
		detail := f.Variant
		if f.Error != "" {
			detail = f.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.Name, f.Status, f.Cells, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "imported %d, skipped %d, failed %d; %d snapshots stored\n",
		report.Imported, report.Skipped, report.Failed, report.Snapshots)

	if report.AllFailed() {
		return cli.Exit("no file could be imported", 1)
	}
	return nil
}

func runShow(c *cli.Context) error {
	snap, err := inventory(c).Draft(c.Context, c.String("date"))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t", snap.Date)
	for _, s := range domain.Sizes() {
		fmt.Fprintf(tw, "%s\t", s)
	}
	fmt.Fprintln(tw, "合計\t")
	for _, v := range domain.Variants() {
		counts := snap.Inventory[v]
		fmt.Fprintf(tw, "%s\t", v.Label())
		for _, n := range counts {
			fmt.Fprintf(tw, "%d\t", n)
		}
		fmt.Fprintf(tw, "%d\t\n", counts.Total())
	}
	return tw.Flush()
}

func runHistory(c *cli.Context) error {
	var filter service.HistoryFilter
	if raw := strings.TrimSpace(c.String("variant")); raw != "" {
		v, ok := domain.ParseVariant(raw)
		if !ok {
			return cli.Exit(fmt.Sprintf("unknown variant %q", raw), 2)
		}
		filter.Variants = []domain.Variant{v}
	}

	rows, err := inventory(c).History(c.Context, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "日付\t種類\t")
	for _, s := range domain.Sizes() {
		fmt.Fprintf(tw, "%s\t", s)
	}
	fmt.Fprintln(tw, "合計")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t", row.Date, row.Variant.Label())
		for _, n := range row.Counts {
			fmt.Fprintf(tw, "%d\t", n)
		}
		fmt.Fprintf(tw, "%d\n", row.Total)
	}
	return tw.Flush()
}

func runCatalog(c *cli.Context) error {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tLABEL")
	for _, v := range domain.Variants() {
		fmt.Fprintf(tw, "%s\t%s\n", v.Slug(), v.Label())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sizes := make([]string, 0, domain.SizeCount)
	for _, s := range domain.Sizes() {
		sizes = append(sizes, s.String())
	}
	fmt.Fprintf(c.App.Writer, "sizes: %s\n", strings.Join(sizes, ", "))
	return nil
}
