package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/cognicore/linkfinder/internal/htmllinks"
	"github.com/cognicore/linkfinder/internal/loader"
	"github.com/cognicore/linkfinder/pkg/linkfinder/dataset"
	"github.com/cognicore/linkfinder/pkg/linkfinder/store/sqlite"
)

var (
	importFile      string
	importHTML      string
	importKeyword   string
	importBase      string
	importOnionOnly bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Append records to the sqlite dataset",
	Long: "Append records to the sqlite dataset from a CSV or JSONL file, or from the\n" +
		"anchors of a saved HTML page filed under one keyword.",
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importFile, "file", "", "CSV or JSONL file to import")
	f.StringVar(&importHTML, "html", "", "HTML page whose links are imported")
	f.StringVar(&importKeyword, "keyword", "", "keyword for links imported from --html")
	f.StringVar(&importBase, "base", "", "base URL for relative links in --html")
	f.BoolVar(&importOnionOnly, "onion-only", false, "keep only .onion links from --html")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	if e.cfg.Dataset.SQLite == "" {
		return errors.New("import needs a sqlite dataset (--sqlite or dataset.sqlite)")
	}

	var records []dataset.Record
	switch {
	case importFile != "" && importHTML != "":
		return errors.New("use either --file or --html")
	case importFile != "":
		records, err = loader.Load(importFile)
	case importHTML != "":
		records, err = htmlRecords()
	default:
		return errors.New("nothing to import: pass --file or --html")
	}
	if err != nil {
		return err
	}

	st, err := sqlite.OpenSQLite(ctx, e.cfg.Dataset.SQLite)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.AddRecords(ctx, records)
	if err != nil {
		return err
	}
	total, err := st.Count(ctx)
	if err != nil {
		return err
	}
	e.log.Info("records imported", "added", n, "total", total)
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d records (%d total)\n", n, total)
	return nil
}

func htmlRecords() ([]dataset.Record, error) {
	if importKeyword == "" {
		return nil, errors.New("--html needs --keyword")
	}
	opts := htmllinks.Options{OnionOnly: importOnionOnly}
	if importBase != "" {
		base, err := url.Parse(importBase)
		if err != nil {
			return nil, fmt.Errorf("parse --base: %w", err)
		}
		opts.Base = base
	}

	f, err := os.Open(importHTML)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	links, err := htmllinks.Extract(f, opts)
	if err != nil {
		return nil, err
	}
	records := make([]dataset.Record, len(links))
	for i, link := range links {
		records[i] = dataset.Record{Keyword: importKeyword, URL: link}
	}
	return records, nil
}
