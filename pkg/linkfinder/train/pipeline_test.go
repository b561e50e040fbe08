package train

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact"
	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact/filestore"
	"github.com/cognicore/linkfinder/pkg/linkfinder/dataset"
	"github.com/cognicore/linkfinder/pkg/linkfinder/model/forest"
	"github.com/cognicore/linkfinder/pkg/linkfinder/store/memstore"
)

type countingStore struct {
	puts int
	err  error
}

func (s *countingStore) Put(ctx context.Context, model, labels []byte) error {
	s.puts++
	return s.err
}

func (s *countingStore) Get(ctx context.Context) ([]byte, []byte, error) {
	return nil, nil, artifact.ErrNotFound
}

func (s *countingStore) Close() error { return nil }

func sampleRecords() []dataset.Record {
	return []dataset.Record{
		{Keyword: "drugs", URL: "http://abc.onion"},
		{Keyword: "drugs", URL: "http://abd.onion"},
		{Keyword: "drugs", URL: "http://abe.onion"},
		{Keyword: "drugs", URL: "http://abf.onion"},
		{Keyword: "drugs", URL: "http://abg.onion"},
		{Keyword: "marketplace", URL: "http://longeraddress1234567.onion/shop/items"},
		{Keyword: "marketplace", URL: "http://longeraddress7654321.onion/shop/cart"},
		{Keyword: "marketplace", URL: "http://longeraddress1111111.onion/shop/list"},
		{Keyword: "marketplace", URL: "http://longeraddress2222222.onion/shop/view"},
		{Keyword: "marketplace", URL: "http://longeraddress3333333.onion/shop/home"},
	}
}

func ptr[T any](v T) *T { return &v }

var fixedClock = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestRunPersistsArtifacts(t *testing.T) {
	ctx := context.Background()
	st := filestore.New(filepath.Join(t.TempDir(), "artifacts"))
	p := &Pipeline{Forest: forest.Config{Trees: 15}, Store: st, Clock: fixedClock}

	res, err := p.Run(ctx, sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, 10, res.Report.Records)
	assert.Equal(t, 2, res.Report.Labels)
	assert.Equal(t, 8, res.Report.TrainSize)
	assert.Equal(t, 2, res.Report.TestSize)
	assert.Equal(t, res.Bundle.RunID.String(), res.Report.RunID)
	assert.True(t, res.Bundle.CreatedAt.Equal(fixedClock()))

	loaded, err := artifact.Load(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, res.Bundle.RunID, loaded.RunID)
	assert.Equal(t, []string{"drugs", "marketplace"}, loaded.Labels.Labels())
	assert.Equal(t, res.Report.Report, loaded.Report)
}

func TestRunIsReproducible(t *testing.T) {
	ctx := context.Background()
	p := &Pipeline{Forest: forest.Config{Trees: 10, Seed: 3}, Clock: fixedClock}

	a, err := p.Run(ctx, sampleRecords())
	require.NoError(t, err)
	b, err := p.Run(ctx, sampleRecords())
	require.NoError(t, err)

	ja, err := json.Marshal(a.Bundle.Classifier)
	require.NoError(t, err)
	jb, err := json.Marshal(b.Bundle.Classifier)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
	assert.Equal(t, a.Report.Accuracy, b.Report.Accuracy)
	assert.NotEqual(t, a.Bundle.RunID, b.Bundle.RunID, "every run gets its own identity")
}

func TestRunEmptyDataset(t *testing.T) {
	st := &countingStore{}
	p := &Pipeline{Store: st}

	_, err := p.Run(context.Background(), nil)

	var te *TrainingError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StepFeatures, te.Step)
	assert.ErrorIs(t, err, ErrTrainingFailure)
	assert.ErrorIs(t, err, forest.ErrEmptyTrainingSet)
	assert.Zero(t, st.puts)
}

func TestRunSingleLabel(t *testing.T) {
	st := &countingStore{}
	p := &Pipeline{Store: st}

	_, err := p.Run(context.Background(), []dataset.Record{
		{Keyword: "drugs", URL: "http://a.onion"},
		{Keyword: "drugs", URL: "http://b.onion"},
	})

	var te *TrainingError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StepSplit, te.Step)
	assert.Zero(t, st.puts)
}

func TestRunEmptyTrainingPartition(t *testing.T) {
	p := &Pipeline{TestFraction: ptr(0.9)}

	_, err := p.Run(context.Background(), []dataset.Record{
		{Keyword: "a", URL: "http://a.onion"},
		{Keyword: "b", URL: "http://b.onion"},
	})

	var te *TrainingError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StepSplit, te.Step)
}

func TestRunInvalidTestFraction(t *testing.T) {
	p := &Pipeline{TestFraction: ptr(1.5)}

	_, err := p.Run(context.Background(), sampleRecords())
	assert.ErrorIs(t, err, ErrTrainingFailure)
}

func TestRunCancelledWritesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := &countingStore{}
	p := &Pipeline{Store: st}

	_, err := p.Run(ctx, sampleRecords())

	var te *TrainingError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StepFit, te.Step)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, st.puts)
}

func TestRunPersistFailure(t *testing.T) {
	boom := errors.New("disk full")
	st := &countingStore{err: boom}
	p := &Pipeline{Forest: forest.Config{Trees: 2}, Store: st}

	_, err := p.Run(context.Background(), sampleRecords())

	var te *TrainingError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StepPersist, te.Step)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, st.puts)
}

func TestTrainingErrorMessage(t *testing.T) {
	err := fail(StepFit, errors.New("x"))
	assert.Equal(t, "training failed at fit: x", err.Error())
}

func TestRunZeroTestFractionHoldsNothingOut(t *testing.T) {
	p := &Pipeline{Forest: forest.Config{Trees: 5}, TestFraction: ptr(0.0)}

	res, err := p.Run(context.Background(), sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 10, res.Report.TrainSize)
	assert.Zero(t, res.Report.TestSize)
	assert.Zero(t, res.Report.Accuracy)
}

func TestSplitSeedZeroIsHonoured(t *testing.T) {
	defaults := &Pipeline{}
	zero := &Pipeline{SplitSeed: ptr(uint64(0))}

	_, defTest, err := defaults.split(40, 2)
	require.NoError(t, err)
	_, zeroTest, err := zero.split(40, 2)
	require.NoError(t, err)
	assert.Len(t, zeroTest, 8)
	assert.NotEqual(t, defTest, zeroTest)

	_, again, err := (&Pipeline{SplitSeed: ptr(uint64(42))}).split(40, 2)
	require.NoError(t, err)
	assert.Equal(t, defTest, again)
}

func TestRunFromDatasetStore(t *testing.T) {
	ctx := context.Background()
	ds := memstore.New()
	defer ds.Close()
	_, err := ds.AddRecords(ctx, sampleRecords())
	require.NoError(t, err)

	records, err := ds.Records(ctx)
	require.NoError(t, err)
	p := &Pipeline{Forest: forest.Config{Trees: 5}, Clock: fixedClock}
	res, err := p.Run(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Report.Records)

	drugs, err := ds.RecordsByKeyword(ctx, "drugs")
	require.NoError(t, err)
	code, err := res.Bundle.Labels.Encode("drugs")
	require.NoError(t, err)
	assert.Len(t, drugs, 5)
	assert.Equal(t, 0, code)
}
