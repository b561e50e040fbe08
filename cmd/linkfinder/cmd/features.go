package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/linkfinder/pkg/linkfinder/features"
)

var (
	featuresKeyword string
	featuresJSON    bool
)

var featuresCmd = &cobra.Command{
	Use:   "features <text>",
	Short: "Print the lexical features of a string",
	Long: "Print the feature vector the classifier sees for a string. With --keyword the\n" +
		"argument is taken as a URL and keyword_length comes from the keyword, as in training.",
	Args: cobra.MinimumNArgs(1),
	RunE: runFeatures,
}

func init() {
	featuresCmd.Flags().StringVar(&featuresKeyword, "keyword", "", "treat the argument as a URL filed under this keyword")
	featuresCmd.Flags().BoolVar(&featuresJSON, "json", false, "print the vector as a JSON object keyed by feature name")
}

func runFeatures(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

	v := features.Extract(text)
	if cmd.Flags().Changed("keyword") {
		v = features.FromRecord(featuresKeyword, text)
	}

	out := cmd.OutOrStdout()
	if featuresJSON {
		return json.NewEncoder(out).Encode(v.Map())
	}
	for i, name := range features.Names {
		fmt.Fprintf(out, "%-18s %g\n", name, v[i])
	}
	return nil
}
