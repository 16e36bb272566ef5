package check

import (
	"fmt"
	"math"

	"github.com/verity-ml/verity/internal/tensor"
)

// Result records how one tensor compared against its reference counterpart.
type Result struct {
	Name          string  `json:"name"`
	Passed        bool    `json:"passed"`
	Compared      int     `json:"compared"`
	MaxAbsErr     float64 `json:"max_abs_err"`
	MaxRelErr     float64 `json:"max_rel_err"`
	FirstMismatch int     `json:"first_mismatch"` // flat index, -1 when none
}

// Compare widens both tensors element-wise to float64 and checks got
// against want under tol. NaN in both positions counts as a match (the
// oracle deliberately propagates NaN for epsilon=0 with zero variance);
// NaN on one side only is a mismatch.
func Compare(name string, got, want *tensor.RawTensor, tol Tolerance) (Result, error) {
	if !got.Shape().Equal(want.Shape()) {
		return Result{}, fmt.Errorf("check: shape mismatch: %v vs %v", got.Shape(), want.Shape())
	}

	res := Result{
		Name:          name,
		Passed:        true,
		Compared:      want.NumElements(),
		FirstMismatch: -1,
	}

	for i := 0; i < want.NumElements(); i++ {
		g := tensor.ValueAt[float64](got, i)
		w := tensor.ValueAt[float64](want, i)

		if math.IsNaN(g) || math.IsNaN(w) {
			if math.IsNaN(g) != math.IsNaN(w) {
				res.Passed = false
				if res.FirstMismatch < 0 {
					res.FirstMismatch = i
				}
			}
			continue
		}

		// Exact matches, including equal infinities.
		if g == w {
			continue
		}

		diff := math.Abs(g - w)
		if diff > res.MaxAbsErr {
			res.MaxAbsErr = diff
		}
		if w != 0 {
			if rel := diff / math.Abs(w); rel > res.MaxRelErr {
				res.MaxRelErr = rel
			}
		}

		if !tol.Within(g, w) {
			res.Passed = false
			if res.FirstMismatch < 0 {
				res.FirstMismatch = i
			}
		}
	}

	return res, nil
}
