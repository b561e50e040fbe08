package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact"
	"github.com/cognicore/linkfinder/pkg/linkfinder/train"
)

var (
	trainTrees  int
	trainDepth  int
	trainSeed   uint64
	trainDryRun bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the fallback classifier and save its artifacts",
	Args:  cobra.NoArgs,
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().IntVar(&trainTrees, "trees", 0, "number of trees (overrides config)")
	trainCmd.Flags().IntVar(&trainDepth, "max-depth", 0, "maximum tree depth, 0 for unlimited (overrides config)")
	trainCmd.Flags().Uint64Var(&trainSeed, "seed", 0, "forest seed (overrides config)")
	trainCmd.Flags().BoolVar(&trainDryRun, "dry-run", false, "train and report without saving artifacts")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	records, err := e.records(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	t := e.cfg.Training
	fc := t.ForestConfig()
	if cmd.Flags().Changed("trees") {
		fc.Trees = trainTrees
	}
	if cmd.Flags().Changed("max-depth") {
		fc.MaxDepth = trainDepth
	}
	if cmd.Flags().Changed("seed") {
		fc.Seed = trainSeed
	}

	p := &train.Pipeline{
		Forest:       fc,
		TestFraction: &t.TestFraction,
		SplitSeed:    &t.SplitSeed,
		Logger:       e.log,
	}
	if !trainDryRun {
		st, err := e.artifacts()
		if err != nil {
			return err
		}
		defer st.Close()
		p.Store = st
	}

	res, err := p.Run(ctx, records)
	if err != nil {
		return err
	}

	printReport(cmd, res.Report.RunID, res.Report.Report, trainDryRun)
	return nil
}

func printReport(cmd *cobra.Command, runID string, r artifact.Report, dryRun bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run:       %s\n", runID)
	fmt.Fprintf(out, "records:   %d\n", r.Records)
	fmt.Fprintf(out, "labels:    %d\n", r.Labels)
	fmt.Fprintf(out, "split:     %d train / %d test\n", r.TrainSize, r.TestSize)
	fmt.Fprintf(out, "accuracy:  %.3f\n", r.Accuracy)
	if dryRun {
		fmt.Fprintln(out, "dry run, artifacts not saved")
	}
}
