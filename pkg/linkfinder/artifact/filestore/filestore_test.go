package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	st := New(filepath.Join(t.TempDir(), "artifacts"))

	require.NoError(t, st.Put(ctx, []byte(`{"m":1}`), []byte(`{"l":1}`)))

	model, labels, err := st.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"m":1}`, string(model))
	assert.Equal(t, `{"l":1}`, string(labels))
}

func TestPutReplacesAndLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := New(dir)

	require.NoError(t, st.Put(ctx, []byte("m1"), []byte("l1")))
	require.NoError(t, st.Put(ctx, []byte("m2"), []byte("l2")))

	model, labels, err := st.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m2", string(model))
	assert.Equal(t, "l2", string(labels))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGetMissing(t *testing.T) {
	st := New(t.TempDir())

	_, _, err := st.Get(context.Background())
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestPutCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := filepath.Join(t.TempDir(), "artifacts")
	st := New(dir)

	assert.Error(t, st.Put(ctx, []byte("m"), []byte("l")))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestMixedRunsRejected(t *testing.T) {
	ctx := context.Background()
	runA := New(filepath.Join(t.TempDir(), "a"))
	runB := New(filepath.Join(t.TempDir(), "b"))

	require.NoError(t, artifact.Save(ctx, runA, testBundle(t)))
	require.NoError(t, artifact.Save(ctx, runB, testBundle(t)))

	// swap in the codec from run B next to run A's model
	data, err := os.ReadFile(filepath.Join(runB.Dir(), LabelsFile))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(runA.Dir(), LabelsFile), data, 0o644))

	_, err = artifact.Load(ctx, runA)
	assert.ErrorIs(t, err, artifact.ErrArtifactVersionMismatch)
}

func TestPutModelInstallFailureKeepsPreviousPair(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, st.Put(ctx, []byte("m1"), []byte("l1")))

	// a non-empty directory at the model path makes the model rename fail
	modelPath := filepath.Join(dir, ModelFile)
	require.NoError(t, os.Remove(modelPath))
	require.NoError(t, os.MkdirAll(filepath.Join(modelPath, "blocker"), 0o755))

	err := st.Put(ctx, []byte("m2"), []byte("l2"))
	require.ErrorContains(t, err, "install model")

	labels, err := os.ReadFile(filepath.Join(dir, LabelsFile))
	require.NoError(t, err)
	assert.Equal(t, "l1", string(labels))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{LabelsFile, ModelFile}, names)
}

func TestPutModelInstallFailureWithoutPreviousPair(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ModelFile, "blocker"), 0o755))

	err := New(dir).Put(ctx, []byte("m"), []byte("l"))
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, LabelsFile))
	assert.True(t, os.IsNotExist(err))
}
