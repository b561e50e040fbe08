package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <keyword>",
	Short: "List the URLs stored under an exact keyword",
	Long:  "List the URLs stored under a keyword, matched exactly and without the classifier.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	keyword := strings.TrimSpace(strings.Join(args, " "))
	ctx := cmd.Context()

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	st, err := e.dataset(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	defer st.Close()

	records, err := st.RecordsByKeyword(ctx, keyword)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "no results")
		return nil
	}
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		fmt.Fprintln(out, r.URL)
	}
	return nil
}
