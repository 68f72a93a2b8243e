// Package achievements decides which achievement thresholds a learner has met.
package achievements

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
)

// Metrics maps a requirement type to the learner's current value.
type Metrics map[types.RequirementType]int64

// ParseMetrics converts caller-supplied counters, rejecting unknown keys and
// negative values.
func ParseMetrics(raw map[string]int64) (Metrics, error) {
	out := make(Metrics, len(raw))
	for k, v := range raw {
		rt, err := personalization.ParseRequirementType(k)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, fmt.Errorf("metric %q must be non-negative", k)
		}
		out[rt] = v
	}
	return out, nil
}

// Merge overlays server on top of m; server-computed values win.
func (m Metrics) Merge(server Metrics) Metrics {
	out := make(Metrics, len(m)+len(server))
	for k, v := range m {
		if k.ServerComputed() {
			continue
		}
		out[k] = v
	}
	for k, v := range server {
		out[k] = v
	}
	return out
}

// Met is a definition whose threshold is satisfied.
type Met struct {
	Achievement *types.Achievement
	Value       int64
}

// Evaluate returns the active definitions not yet unlocked whose requirement
// value is reached, highest points first, then by code.
func Evaluate(defs []*types.Achievement, unlocked map[uuid.UUID]struct{}, metrics Metrics) []Met {
	var out []Met
	for _, d := range defs {
		if d == nil || !d.Active {
			continue
		}
		if _, done := unlocked[d.ID]; done {
			continue
		}
		v, ok := metrics[d.RequirementType]
		if !ok || v < d.RequirementValue {
			continue
		}
		out = append(out, Met{Achievement: d, Value: v})
	}
	SortByPoints(out)
	return out
}

func SortByPoints(ms []Met) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i].Achievement, ms[j].Achievement
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.Code < b.Code
	})
}
