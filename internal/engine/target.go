package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"rebalancer/types"
)

// StaticTarget always proposes the same allocation.
type StaticTarget struct {
	weights *types.WeightTable
}

func NewStaticTarget(weights *types.WeightTable) *StaticTarget {
	return &StaticTarget{weights: weights.Clone()}
}

// LoadStaticTarget reads a {"TICKER": "weight"} JSON document.
func LoadStaticTarget(path string) (*StaticTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read target file: %w", err)
	}
	weights := types.NewWeightTable()
	if err := json.Unmarshal(data, weights); err != nil {
		return nil, fmt.Errorf("decode target file %s: %w", path, err)
	}
	return NewStaticTarget(weights), nil
}

func (s *StaticTarget) Target(_ context.Context) (*types.WeightTable, error) {
	return s.weights.Clone(), nil
}
