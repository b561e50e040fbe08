// Package artifact persists the classifier and label codec produced by one
// training run. Both blobs carry the run's ULID and a format tag. Load refuses
// to pair blobs from different runs or formats.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/linkfinder/pkg/linkfinder/internalerr"
	"github.com/cognicore/linkfinder/pkg/linkfinder/labels"
	"github.com/cognicore/linkfinder/pkg/linkfinder/model"
	"github.com/cognicore/linkfinder/pkg/linkfinder/model/forest"
)

const (
	ModelFormat  = "linkfinder.model/v1"
	LabelsFormat = "linkfinder.labels/v1"

	KindRandomForest = "random_forest"
)

var (
	ErrArtifactVersionMismatch = internalerr.ErrArtifactVersionMismatch
	ErrNotFound                = internalerr.ErrNotFound

	// ErrUnknownModelKind is returned when a model blob names an unsupported model family.
	ErrUnknownModelKind = errors.New("unknown model kind")
)

// Store holds the two serialized artifacts. Put must write both or neither.
type Store interface {
	Put(ctx context.Context, model, labels []byte) error
	Get(ctx context.Context) (model, labels []byte, err error)
	Close() error
}

// Report summarises the training run that produced a bundle.
type Report struct {
	Records   int     `json:"records"`
	Labels    int     `json:"labels"`
	TrainSize int     `json:"train_size"`
	TestSize  int     `json:"test_size"`
	Accuracy  float64 `json:"accuracy"`
}

// Bundle is a classifier and the codec it was trained with.
type Bundle struct {
	RunID      ulid.ULID
	CreatedAt  time.Time
	Classifier model.Classifier
	Labels     *labels.Codec
	Report     Report
}

type modelEnvelope struct {
	Format    string          `json:"format"`
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Kind      string          `json:"kind"`
	Report    Report          `json:"report"`
	Payload   json.RawMessage `json:"payload"`
}

type labelsEnvelope struct {
	Format    string          `json:"format"`
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Encode serializes b into its model and labels blobs.
func Encode(b Bundle) (modelBlob, labelsBlob []byte, err error) {
	if b.Classifier == nil || b.Labels == nil {
		return nil, nil, fmt.Errorf("%w: bundle needs a classifier and labels", internalerr.ErrInvalidInput)
	}

	var kind string
	switch b.Classifier.(type) {
	case *forest.Forest:
		kind = KindRandomForest
	default:
		return nil, nil, fmt.Errorf("%w: %T", ErrUnknownModelKind, b.Classifier)
	}

	payload, err := json.Marshal(b.Classifier)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal classifier: %w", err)
	}
	modelBlob, err = json.Marshal(modelEnvelope{
		Format:    ModelFormat,
		RunID:     b.RunID.String(),
		CreatedAt: b.CreatedAt.UTC(),
		Kind:      kind,
		Report:    b.Report,
		Payload:   payload,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal model envelope: %w", err)
	}

	payload, err = json.Marshal(b.Labels)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal labels: %w", err)
	}
	labelsBlob, err = json.Marshal(labelsEnvelope{
		Format:    LabelsFormat,
		RunID:     b.RunID.String(),
		CreatedAt: b.CreatedAt.UTC(),
		Payload:   payload,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal labels envelope: %w", err)
	}
	return modelBlob, labelsBlob, nil
}

// Decode restores a bundle from its blobs.
func Decode(modelBlob, labelsBlob []byte) (Bundle, error) {
	var me modelEnvelope
	if err := json.Unmarshal(modelBlob, &me); err != nil {
		return Bundle{}, fmt.Errorf("decode model envelope: %w", err)
	}
	var le labelsEnvelope
	if err := json.Unmarshal(labelsBlob, &le); err != nil {
		return Bundle{}, fmt.Errorf("decode labels envelope: %w", err)
	}

	if me.Format != ModelFormat {
		return Bundle{}, fmt.Errorf("%w: model format %q, want %q", ErrArtifactVersionMismatch, me.Format, ModelFormat)
	}
	if le.Format != LabelsFormat {
		return Bundle{}, fmt.Errorf("%w: labels format %q, want %q", ErrArtifactVersionMismatch, le.Format, LabelsFormat)
	}
	if me.RunID != le.RunID {
		return Bundle{}, fmt.Errorf("%w: model run %s, labels run %s", ErrArtifactVersionMismatch, me.RunID, le.RunID)
	}
	runID, err := ulid.ParseStrict(me.RunID)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: run id %q: %v", ErrArtifactVersionMismatch, me.RunID, err)
	}

	var clf model.Classifier
	switch me.Kind {
	case KindRandomForest:
		f := &forest.Forest{}
		if err := json.Unmarshal(me.Payload, f); err != nil {
			return Bundle{}, fmt.Errorf("decode forest: %w", err)
		}
		clf = f
	default:
		return Bundle{}, fmt.Errorf("%w: %q", ErrUnknownModelKind, me.Kind)
	}

	codec := &labels.Codec{}
	if err := json.Unmarshal(le.Payload, codec); err != nil {
		return Bundle{}, fmt.Errorf("decode labels: %w", err)
	}
	if cc, ok := clf.(model.ClassCounter); ok && cc.Classes() > codec.Len() {
		return Bundle{}, fmt.Errorf("%w: classifier emits %d codes, codec has %d", ErrArtifactVersionMismatch, cc.Classes(), codec.Len())
	}

	return Bundle{
		RunID:      runID,
		CreatedAt:  me.CreatedAt,
		Classifier: clf,
		Labels:     codec,
		Report:     me.Report,
	}, nil
}

// Save encodes b and writes both blobs to st.
func Save(ctx context.Context, st Store, b Bundle) error {
	modelBlob, labelsBlob, err := Encode(b)
	if err != nil {
		return err
	}
	return st.Put(ctx, modelBlob, labelsBlob)
}

// Load reads and decodes the bundle held by st.
func Load(ctx context.Context, st Store) (Bundle, error) {
	modelBlob, labelsBlob, err := st.Get(ctx)
	if err != nil {
		return Bundle{}, err
	}
	return Decode(modelBlob, labelsBlob)
}
