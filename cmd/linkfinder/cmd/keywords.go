package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/linkfinder/pkg/linkfinder/dataset"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "List known keywords",
	Args:  cobra.NoArgs,
	RunE:  runKeywords,
}

func runKeywords(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	records, err := e.records(cmd.Context())
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, kw := range dataset.Build(records).Keywords() {
		fmt.Fprintln(out, kw)
	}
	return nil
}
