package sampler

import (
	"fmt"

	"github.com/hupe1980/vmc/rng"
)

// BatchChoice draws one value per row of p from the categories a, with
// probabilities proportional to that row's weights. Weights may be
// unnormalized; each row consumes exactly one uniform draw from the key
// via an inverse-CDF walk over the row's cumulative sum.
func BatchChoice(key rng.Key, a []float64, p [][]float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, fmt.Errorf("sampler: empty category set")
	}

	u := make([]float64, len(p))
	key.Uniform(u)

	out := make([]float64, len(p))
	cum := make([]float64, len(a))
	for b, row := range p {
		if len(row) != len(a) {
			return nil, fmt.Errorf("sampler: weight row %d has %d entries, want %d", b, len(row), len(a))
		}

		var total float64
		for j, w := range row {
			total += w
			cum[j] = total
		}

		// First index whose cumulative sum exceeds the draw. A draw of
		// r = total*u is strictly below total, so the count stays in
		// range; the clamp only guards float round-off.
		r := total * u[b]
		idx := 0
		for _, c := range cum {
			if r > c {
				idx++
			}
		}
		if idx >= len(a) {
			idx = len(a) - 1
		}
		out[b] = a[idx]
	}
	return out, nil
}
