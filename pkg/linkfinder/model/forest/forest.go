// Package forest implements a bagged ensemble of CART decision trees over
// feature vectors. Training is fully determined by the input and Config.Seed.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cognicore/linkfinder/pkg/linkfinder/features"
	"github.com/cognicore/linkfinder/pkg/linkfinder/internalerr"
)

var (
	ErrEmptyTrainingSet = internalerr.ErrEmptyTrainingSet
	ErrLabelMismatch    = internalerr.ErrLabelMismatch

	// ErrInvalidLabel is returned for label codes outside [0, Classes).
	ErrInvalidLabel = errors.New("invalid training label")
)

// Config controls forest training.
type Config struct {
	Trees           int // number of trees (default 100)
	MaxDepth        int // 0 means grow until leaves are pure
	MinSamplesSplit int // default 2
	MinSamplesLeaf  int // default 1
	MaxFeatures     int // features tried per split; 0 means floor(sqrt(features.Size))
	NoBootstrap     bool
	Classes         int // 0 means max(label)+1
	Seed            uint64
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		Trees:           100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     int(math.Sqrt(features.Size)),
		Seed:            42,
	}
}

func (c Config) withDefaults() (Config, error) {
	if c.Trees < 0 || c.MaxDepth < 0 || c.MinSamplesSplit < 0 || c.MinSamplesLeaf < 0 || c.MaxFeatures < 0 || c.Classes < 0 {
		return c, fmt.Errorf("%w: forest parameters must not be negative", internalerr.ErrInvalidConfig)
	}
	def := DefaultConfig()
	if c.Trees == 0 {
		c.Trees = def.Trees
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = def.MinSamplesSplit
	}
	if c.MinSamplesLeaf == 0 {
		c.MinSamplesLeaf = def.MinSamplesLeaf
	}
	if c.MaxFeatures == 0 {
		c.MaxFeatures = def.MaxFeatures
	}
	if c.MaxFeatures > features.Size {
		c.MaxFeatures = features.Size
	}
	return c, nil
}

// Node is one split or leaf of a tree. Samples with x[Feature] <= Threshold
// descend to Left, the rest to Right.
type Node struct {
	Feature   int     `json:"f,omitempty"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Label     int     `json:"v,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
}

// Tree is a decision tree stored as a flat node slice rooted at index 0.
// Children always come after their parent.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(v features.Vector) int {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Label
		}
		if v[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Forest is a trained ensemble. It is immutable and safe for concurrent use.
type Forest struct {
	classes int
	trees   []Tree
}

// Train fits a forest on X with label codes y.
func Train(X []features.Vector, y []int, cfg Config) (*Forest, error) {
	if len(X) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("%w: %d vectors, %d labels", ErrLabelMismatch, len(X), len(y))
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	classes := cfg.Classes
	maxLabel := 0
	for i, label := range y {
		if label < 0 || (cfg.Classes > 0 && label >= cfg.Classes) {
			return nil, fmt.Errorf("%w: %d at row %d", ErrInvalidLabel, label, i)
		}
		if label > maxLabel {
			maxLabel = label
		}
	}
	if classes == 0 {
		classes = maxLabel + 1
	}

	f := &Forest{classes: classes, trees: make([]Tree, cfg.Trees)}
	for t := range f.trees {
		g := &grower{
			X:       X,
			y:       y,
			cfg:     cfg,
			classes: classes,
			rng:     rand.New(rand.NewPCG(cfg.Seed, uint64(t))),
		}
		g.grow(g.sample(), 0)
		f.trees[t] = Tree{Nodes: g.nodes}
	}
	return f, nil
}

// Predict returns the label code most trees vote for. Ties go to the lowest code.
func (f *Forest) Predict(v features.Vector) int {
	votes := make([]int, f.classes)
	for i := range f.trees {
		votes[f.trees[i].predict(v)]++
	}
	return argmax(votes)
}

// Classes returns the number of label codes the forest can emit.
func (f *Forest) Classes() int { return f.classes }

// Trees returns the ensemble size.
func (f *Forest) Trees() int { return len(f.trees) }

// Score returns the fraction of X predicted as y. It is 0 for empty input.
func (f *Forest) Score(X []features.Vector, y []int) float64 {
	if len(X) == 0 || len(X) != len(y) {
		return 0
	}
	hits := 0
	for i, v := range X {
		if f.Predict(v) == y[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(X))
}

type grower struct {
	X       []features.Vector
	y       []int
	cfg     Config
	classes int
	rng     *rand.Rand
	nodes   []Node
}

func (g *grower) sample() []int {
	n := len(g.X)
	idx := make([]int, n)
	for i := range idx {
		if g.cfg.NoBootstrap {
			idx[i] = i
		} else {
			idx[i] = g.rng.IntN(n)
		}
	}
	return idx
}

// grow appends the subtree for rows and returns its root index.
func (g *grower) grow(rows []int, depth int) int {
	counts := make([]int, g.classes)
	for _, r := range rows {
		counts[g.y[r]]++
	}
	label := argmax(counts)

	self := len(g.nodes)
	g.nodes = append(g.nodes, Node{Leaf: true, Label: label})

	if counts[label] == len(rows) ||
		len(rows) < g.cfg.MinSamplesSplit ||
		(g.cfg.MaxDepth > 0 && depth >= g.cfg.MaxDepth) {
		return self
	}

	s, ok := g.bestSplit(rows)
	if !ok {
		return self
	}

	var left, right []int
	for _, r := range rows {
		if g.X[r][s.feature] <= s.threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := g.grow(left, depth+1)
	rt := g.grow(right, depth+1)
	g.nodes[self] = Node{Feature: s.feature, Threshold: s.threshold, Left: l, Right: rt}
	return self
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

// bestSplit searches up to MaxFeatures non-constant features, visited in a
// random order, for the threshold with the lowest weighted Gini impurity.
// The best split is returned even when it does not improve on the parent.
func (g *grower) bestSplit(rows []int) (split, bool) {
	best := split{impurity: math.Inf(1)}
	found := false
	evaluated := 0

	sorted := make([]int, len(rows))
	leftCounts := make([]int, g.classes)
	rightCounts := make([]int, g.classes)

	for _, f := range g.rng.Perm(features.Size) {
		if evaluated >= g.cfg.MaxFeatures {
			break
		}
		copy(sorted, rows)
		sort.SliceStable(sorted, func(a, b int) bool {
			return g.X[sorted[a]][f] < g.X[sorted[b]][f]
		})
		if g.X[sorted[0]][f] == g.X[sorted[len(sorted)-1]][f] {
			continue
		}
		evaluated++

		clear(leftCounts)
		clear(rightCounts)
		for _, r := range sorted {
			rightCounts[g.y[r]]++
		}

		n := len(sorted)
		for i := 0; i < n-1; i++ {
			label := g.y[sorted[i]]
			leftCounts[label]++
			rightCounts[label]--

			lo, hi := g.X[sorted[i]][f], g.X[sorted[i+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := i+1, n-i-1
			if nl < g.cfg.MinSamplesLeaf || nr < g.cfg.MinSamplesLeaf {
				continue
			}

			imp := float64(nl)*gini(leftCounts, nl) + float64(nr)*gini(rightCounts, nr)
			if imp < best.impurity {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, impurity: imp}
				found = true
			}
		}
	}
	return best, found
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}
