package filestore

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact"
	"github.com/cognicore/linkfinder/pkg/linkfinder/features"
	"github.com/cognicore/linkfinder/pkg/linkfinder/labels"
	"github.com/cognicore/linkfinder/pkg/linkfinder/model/forest"
)

func testBundle(t *testing.T) artifact.Bundle {
	t.Helper()
	codec, err := labels.Fit([]string{"drugs", "market"})
	require.NoError(t, err)

	X := []features.Vector{features.Extract("drugs"), features.Extract("http://a.onion/market")}
	f, err := forest.Train(X, []int{0, 1}, forest.Config{Trees: 2})
	require.NoError(t, err)

	return artifact.Bundle{
		RunID:      ulid.MustNew(ulid.Now(), rand.Reader),
		CreatedAt:  time.Now(),
		Classifier: f,
		Labels:     codec,
	}
}
