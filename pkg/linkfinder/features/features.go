// Package features computes the fixed-shape lexical summary the classifier
// consumes. The same scan is used at training and inference time so identical
// strings always produce bit-identical vectors.
//
// Training derives vectors from a record's URL (with keyword_length taken from
// the record's keyword) while inference derives them from the query keyword.
// The classifier is therefore fit on URL-shaped inputs and queried with
// keyword-shaped ones. That asymmetry is existing behavior and is kept as is.
package features

import (
	"unicode"
	"unicode/utf8"
)

// Field positions within a Vector.
const (
	URLLength = iota
	NumDots
	NumSlashes
	KeywordLength
	HasNumbers
	HasSpecialChars

	// Size is the arity of a Vector.
	Size
)

// Names lists the field names in Vector order.
var Names = [Size]string{
	"url_length",
	"num_dots",
	"num_slashes",
	"keyword_length",
	"has_numbers",
	"has_special_chars",
}

// Vector is the numeric feature tuple for a single string.
type Vector [Size]float64

// Extract computes the feature vector of s. It never fails; the empty string
// yields the zero vector.
func Extract(s string) Vector {
	var v Vector
	n := float64(utf8.RuneCountInString(s))
	v[URLLength] = n
	v[KeywordLength] = n

	for _, r := range s {
		switch r {
		case '.':
			v[NumDots]++
		case '/':
			v[NumSlashes]++
		}
		if unicode.IsDigit(r) {
			v[HasNumbers] = 1
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			v[HasSpecialChars] = 1
		}
	}
	return v
}

// FromRecord computes the training vector of a dataset record: every field
// describes url except keyword_length, which is the length of keyword.
func FromRecord(keyword, url string) Vector {
	v := Extract(url)
	v[KeywordLength] = float64(utf8.RuneCountInString(keyword))
	return v
}

// Map returns the vector keyed by field name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, Size)
	for i, name := range Names {
		out[name] = v[i]
	}
	return out
}
