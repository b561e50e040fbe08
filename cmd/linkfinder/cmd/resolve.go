package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/linkfinder/pkg/linkfinder"
)

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <keyword>",
	Short: "Resolve a keyword to URLs",
	Long:  "Resolve a keyword by substring search, falling back to the trained classifier when nothing matches.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print the resolution as JSON")
}

func runResolve(cmd *cobra.Command, args []string) error {
	keyword := strings.TrimSpace(strings.Join(args, " "))
	if keyword == "" {
		return errors.New("please enter a keyword")
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	eng, err := e.engine(cmd.Context())
	if err != nil {
		return err
	}

	res, err := eng.ResolveDetailed(keyword)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if resolveJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"keyword":   res.Keyword,
			"urls":      nonNil(res.URLs),
			"source":    res.Source,
			"predicted": res.Predicted,
		})
	}

	if res.Source == linkfinder.SourcePredicted {
		fmt.Fprintf(out, "no direct match, predicted category: %s\n", res.Predicted)
	}
	if len(res.URLs) == 0 {
		fmt.Fprintln(out, "no results")
		return nil
	}
	for _, u := range res.URLs {
		fmt.Fprintln(out, u)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
