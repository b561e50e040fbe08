package forest

import (
	"encoding/json"
	"fmt"

	"github.com/cognicore/linkfinder/pkg/linkfinder/features"
	"github.com/cognicore/linkfinder/pkg/linkfinder/internalerr"
)

type forestJSON struct {
	Classes int    `json:"classes"`
	Trees   []Tree `json:"trees"`
}

// MarshalJSON encodes the exact tree structure.
func (f *Forest) MarshalJSON() ([]byte, error) {
	return json.Marshal(forestJSON{Classes: f.classes, Trees: f.trees})
}

// UnmarshalJSON restores a forest and checks that every tree is walkable.
func (f *Forest) UnmarshalJSON(data []byte) error {
	var fj forestJSON
	if err := json.Unmarshal(data, &fj); err != nil {
		return err
	}
	if fj.Classes <= 0 || len(fj.Trees) == 0 {
		return fmt.Errorf("%w: forest needs classes and trees", internalerr.ErrInvalidInput)
	}
	for t, tree := range fj.Trees {
		if err := validateTree(tree, fj.Classes); err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
	}
	f.classes = fj.Classes
	f.trees = fj.Trees
	return nil
}

func validateTree(t Tree, classes int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: empty tree", internalerr.ErrInvalidInput)
	}
	for i, n := range t.Nodes {
		if n.Leaf {
			if n.Label < 0 || n.Label >= classes {
				return fmt.Errorf("%w: node %d label %d", internalerr.ErrInvalidInput, i, n.Label)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= features.Size {
			return fmt.Errorf("%w: node %d feature %d", internalerr.ErrInvalidInput, i, n.Feature)
		}
		// children after parent keeps every walk finite
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("%w: node %d children %d/%d", internalerr.ErrInvalidInput, i, n.Left, n.Right)
		}
	}
	return nil
}
