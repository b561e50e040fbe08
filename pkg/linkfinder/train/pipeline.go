package train

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math"
	mrand "math/rand/v2"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact"
	"github.com/cognicore/linkfinder/pkg/linkfinder/dataset"
	"github.com/cognicore/linkfinder/pkg/linkfinder/features"
	"github.com/cognicore/linkfinder/pkg/linkfinder/internalerr"
	"github.com/cognicore/linkfinder/pkg/linkfinder/labels"
	"github.com/cognicore/linkfinder/pkg/linkfinder/model/forest"
)

// Pipeline steps, as reported by TrainingError.
const (
	StepFeatures = "features"
	StepEncode   = "encode"
	StepSplit    = "split"
	StepFit      = "fit"
	StepEvaluate = "evaluate"
	StepPersist  = "persist"
)

var ErrTrainingFailure = internalerr.ErrTrainingFailure

// TrainingError reports the step at which a training run stopped.
type TrainingError struct {
	Step string
	Err  error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed at %s: %v", e.Step, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

// Is makes every TrainingError match ErrTrainingFailure.
func (e *TrainingError) Is(target error) bool { return target == ErrTrainingFailure }

func fail(step string, err error) error {
	return &TrainingError{Step: step, Err: err}
}

// Pipeline turns a dataset into a persisted classifier and label codec.
type Pipeline struct {
	Forest       forest.Config
	TestFraction *float64 // held-out share; nil means 0.2, 0 holds nothing out
	SplitSeed    *uint64  // nil means 42
	Store        artifact.Store
	Clock        func() time.Time
	Logger       *slog.Logger
}

// Report summarises a successful run.
type Report struct {
	RunID string
	artifact.Report
}

// Result is the output of a successful run.
type Result struct {
	Bundle artifact.Bundle
	Report Report
}

// Run executes every step in order. Artifacts are written only after all
// earlier steps succeed; a nil Store makes the run a dry run.
func (p *Pipeline) Run(ctx context.Context, records []dataset.Record) (Result, error) {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	now := time.Now
	if p.Clock != nil {
		now = p.Clock
	}

	// features come from the url; keyword_length from the keyword
	if len(records) == 0 {
		return Result{}, fail(StepFeatures, forest.ErrEmptyTrainingSet)
	}
	X := make([]features.Vector, len(records))
	keywords := make([]string, len(records))
	for i, r := range records {
		X[i] = features.FromRecord(r.Keyword, r.URL)
		keywords[i] = r.Keyword
	}
	log.Debug("features extracted", "records", len(records))

	codec, err := labels.Fit(keywords)
	if err != nil {
		return Result{}, fail(StepEncode, err)
	}
	y, err := codec.EncodeAll(keywords)
	if err != nil {
		return Result{}, fail(StepEncode, err)
	}
	log.Debug("labels encoded", "labels", codec.Len())

	trainIdx, testIdx, err := p.split(len(records), codec.Len())
	if err != nil {
		return Result{}, fail(StepSplit, err)
	}
	Xtr, ytr := gather(X, y, trainIdx)
	Xte, yte := gather(X, y, testIdx)
	log.Debug("dataset split", "train", len(Xtr), "test", len(Xte))

	if err := ctx.Err(); err != nil {
		return Result{}, fail(StepFit, err)
	}
	cfg := p.Forest
	cfg.Classes = codec.Len()
	clf, err := forest.Train(Xtr, ytr, cfg)
	if err != nil {
		return Result{}, fail(StepFit, err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fail(StepEvaluate, err)
	}
	accuracy := clf.Score(Xte, yte)
	log.Info("model trained", "trees", clf.Trees(), "labels", codec.Len(), "held_out_accuracy", accuracy)

	runID, err := ulid.New(ulid.Timestamp(now()), rand.Reader)
	if err != nil {
		return Result{}, fail(StepPersist, err)
	}
	bundle := artifact.Bundle{
		RunID:      runID,
		CreatedAt:  now().UTC(),
		Classifier: clf,
		Labels:     codec,
		Report: artifact.Report{
			Records:   len(records),
			Labels:    codec.Len(),
			TrainSize: len(Xtr),
			TestSize:  len(Xte),
			Accuracy:  accuracy,
		},
	}

	if p.Store != nil {
		if err := artifact.Save(ctx, p.Store, bundle); err != nil {
			return Result{}, fail(StepPersist, err)
		}
		log.Info("artifacts saved", "run_id", runID.String())
	}

	return Result{
		Bundle: bundle,
		Report: Report{RunID: runID.String(), Report: bundle.Report},
	}, nil
}

var (
	errSingleLabel    = errors.New("dataset needs at least two distinct keywords")
	errEmptyPartition = errors.New("training partition is empty")
)

// split shuffles row indices with SplitSeed and carves off
// ceil(n*TestFraction) rows for evaluation.
func (p *Pipeline) split(n, classes int) (trainIdx, testIdx []int, err error) {
	if classes < 2 {
		return nil, nil, errSingleLabel
	}
	frac := 0.2
	if p.TestFraction != nil {
		frac = *p.TestFraction
	}
	if frac < 0 || frac >= 1 {
		return nil, nil, fmt.Errorf("%w: test fraction %v outside [0, 1)", internalerr.ErrInvalidConfig, frac)
	}
	seed := uint64(42)
	if p.SplitSeed != nil {
		seed = *p.SplitSeed
	}

	perm := mrand.New(mrand.NewPCG(seed, 0)).Perm(n)
	nTest := int(math.Ceil(float64(n) * frac))
	if n-nTest <= 0 {
		return nil, nil, errEmptyPartition
	}
	return perm[nTest:], perm[:nTest], nil
}

func gather(X []features.Vector, y []int, idx []int) ([]features.Vector, []int) {
	xs := make([]features.Vector, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}
