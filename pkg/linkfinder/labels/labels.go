package labels

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/cognicore/linkfinder/pkg/linkfinder/internalerr"
)

var (
	ErrUnknownLabel = internalerr.ErrUnknownLabel
	ErrInvalidCode  = internalerr.ErrInvalidCode

	// ErrEmptyLabels is returned by Fit when no labels are given.
	ErrEmptyLabels = errors.New("no labels to fit")
)

// Codec maps keyword labels to dense integer codes and back.
// Codes follow the lexicographic order of the distinct labels, so fitting the
// same label multiset always yields the same codec.
type Codec struct {
	labels []string
	codes  map[string]int
}

// Fit builds a codec from every distinct label in labels.
func Fit(labels []string) (*Codec, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyLabels
	}

	seen := make(map[string]struct{}, len(labels))
	distinct := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		distinct = append(distinct, l)
	}
	sort.Strings(distinct)

	return newCodec(distinct), nil
}

func newCodec(sorted []string) *Codec {
	codes := make(map[string]int, len(sorted))
	for i, l := range sorted {
		codes[l] = i
	}
	return &Codec{labels: sorted, codes: codes}
}

// Encode returns the code of label.
func (c *Codec) Encode(label string) (int, error) {
	code, ok := c.codes[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return code, nil
}

// EncodeAll encodes labels in order, failing on the first unknown label.
func (c *Codec) EncodeAll(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		code, err := c.Encode(l)
		if err != nil {
			return nil, err
		}
		out[i] = code
	}
	return out, nil
}

// Decode returns the label assigned to code.
func (c *Codec) Decode(code int) (string, error) {
	if code < 0 || code >= len(c.labels) {
		return "", fmt.Errorf("%w: %d (have %d labels)", ErrInvalidCode, code, len(c.labels))
	}
	return c.labels[code], nil
}

// Len returns the number of distinct labels.
func (c *Codec) Len() int { return len(c.labels) }

// Labels returns the labels in code order.
func (c *Codec) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

type codecJSON struct {
	Labels []string `json:"labels"`
}

// MarshalJSON encodes the codec as its ordered label list.
func (c *Codec) MarshalJSON() ([]byte, error) {
	return json.Marshal(codecJSON{Labels: c.labels})
}

// UnmarshalJSON restores a codec written by MarshalJSON. The label list must
// be strictly increasing, otherwise codes would not match the fitted codec.
func (c *Codec) UnmarshalJSON(data []byte) error {
	var cj codecJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	if len(cj.Labels) == 0 {
		return ErrEmptyLabels
	}
	for i := 1; i < len(cj.Labels); i++ {
		if cj.Labels[i-1] >= cj.Labels[i] {
			return fmt.Errorf("%w: labels not strictly sorted at %d", internalerr.ErrInvalidInput, i)
		}
	}
	*c = *newCodec(cj.Labels)
	return nil
}
