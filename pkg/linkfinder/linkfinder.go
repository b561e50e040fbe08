package linkfinder

import (
	"fmt"
	"strings"

	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact"
	"github.com/cognicore/linkfinder/pkg/linkfinder/dataset"
	"github.com/cognicore/linkfinder/pkg/linkfinder/features"
	"github.com/cognicore/linkfinder/pkg/linkfinder/internalerr"
	"github.com/cognicore/linkfinder/pkg/linkfinder/labels"
	"github.com/cognicore/linkfinder/pkg/linkfinder/model"
)

var (
	ErrEmptyKeyword            = internalerr.ErrEmptyKeyword
	ErrInvalidCode             = internalerr.ErrInvalidCode
	ErrInvalidInput            = internalerr.ErrInvalidInput
	ErrArtifactVersionMismatch = internalerr.ErrArtifactVersionMismatch
)

// State is a step of a resolution.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateFound
	StatePredicting
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateFound:
		return "found"
	case StatePredicting:
		return "predicting"
	case StateResolved:
		return "resolved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Source tells how a resolution's URLs were obtained.
type Source string

const (
	SourceSubstring Source = "substring"
	SourcePredicted Source = "predicted"
)

// Resolution is the detailed outcome of resolving a keyword.
type Resolution struct {
	Keyword   string
	URLs      []string
	Source    Source
	Predicted string // predicted keyword, set when Source is SourcePredicted
	State     State  // StateFound or StateResolved
}

// Engine resolves keywords against a dataset index, falling back to a
// classifier when nothing matches. It is immutable and safe for concurrent use.
type Engine struct {
	index      *dataset.Index
	classifier model.Classifier
	labels     *labels.Codec
	runID      string
}

// Options configures an Engine
type Options struct {
	Index      *dataset.Index
	Classifier model.Classifier
	Labels     *labels.Codec
	RunID      string
}

// New creates an Engine. The codec must cover every code the classifier can
// emit, otherwise the pair did not come from the same training run.
func New(opts Options) (*Engine, error) {
	if opts.Index == nil || opts.Classifier == nil || opts.Labels == nil {
		return nil, fmt.Errorf("%w: engine needs an index, a classifier and labels", ErrInvalidInput)
	}
	if cc, ok := opts.Classifier.(model.ClassCounter); ok && cc.Classes() > opts.Labels.Len() {
		return nil, fmt.Errorf("%w: classifier emits %d codes, codec has %d",
			ErrArtifactVersionMismatch, cc.Classes(), opts.Labels.Len())
	}
	return &Engine{
		index:      opts.Index,
		classifier: opts.Classifier,
		labels:     opts.Labels,
		runID:      opts.RunID,
	}, nil
}

// NewFromBundle creates an Engine from loaded training artifacts.
func NewFromBundle(index *dataset.Index, b artifact.Bundle) (*Engine, error) {
	return New(Options{
		Index:      index,
		Classifier: b.Classifier,
		Labels:     b.Labels,
		RunID:      b.RunID.String(),
	})
}

// Resolve returns the URLs for keyword. See ResolveDetailed.
func (e *Engine) Resolve(keyword string) ([]string, error) {
	res, err := e.ResolveDetailed(keyword)
	if err != nil {
		return nil, err
	}
	return res.URLs, nil
}

// ResolveDetailed runs substring search first; only when it finds nothing is
// the classifier consulted, on features of keyword itself. A predicted keyword
// with no remaining records resolves to an empty list, not an error.
func (e *Engine) ResolveDetailed(keyword string) (Resolution, error) {
	// Searching
	if strings.TrimSpace(keyword) == "" {
		return Resolution{}, ErrEmptyKeyword
	}
	if urls := e.index.SearchBySubstring(keyword); len(urls) > 0 {
		return Resolution{
			Keyword: keyword,
			URLs:    urls,
			Source:  SourceSubstring,
			State:   StateFound,
		}, nil
	}

	// Predicting
	code := e.classifier.Predict(features.Extract(keyword))
	predicted, err := e.labels.Decode(code)
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Keyword:   keyword,
		URLs:      e.index.LookupExact(predicted),
		Source:    SourcePredicted,
		Predicted: predicted,
		State:     StateResolved,
	}, nil
}

// Keywords returns the known keywords in sorted order.
func (e *Engine) Keywords() []string {
	return e.index.Keywords()
}

// Records returns the number of indexed records.
func (e *Engine) Records() int {
	return e.index.Len()
}

// RunID returns the identity of the loaded training run, if known.
func (e *Engine) RunID() string {
	return e.runID
}
