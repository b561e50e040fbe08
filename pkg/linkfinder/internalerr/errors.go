package internalerr

import "errors"

// Sentinel errors shared across linkfinder packages
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Resolution
	ErrEmptyKeyword = errors.New("empty keyword")

	// Label codec
	ErrUnknownLabel = errors.New("unknown label")
	ErrInvalidCode  = errors.New("invalid label code")

	// Artifacts
	ErrArtifactVersionMismatch = errors.New("artifact version mismatch")

	// Training
	ErrTrainingFailure  = errors.New("training failure")
	ErrEmptyTrainingSet = errors.New("empty training set")
	ErrLabelMismatch    = errors.New("feature and label counts differ")
)
