package model

import "github.com/cognicore/linkfinder/pkg/linkfinder/features"

// Classifier predicts a label code from a feature vector.
// This interface allows swapping model families (decision forest, linear,
// nearest-neighbour) without touching the resolution engine.
type Classifier interface {
	Predict(v features.Vector) int
}

// ClassCounter is implemented by classifiers that know how many label codes
// they can emit. Codes are always in [0, Classes()).
type ClassCounter interface {
	Classes() int
}
