package sampler

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vmc/hilbert"
	"github.com/hupe1980/vmc/model"
	"github.com/hupe1980/vmc/rng"
)

func newSpin(t *testing.T, n int) *hilbert.Space {
	t.Helper()
	hs, err := hilbert.Spin(n)
	require.NoError(t, err)
	return hs
}

func TestNewARDirect(t *testing.T) {
	hs := newSpin(t, 4)

	t.Run("Defaults", func(t *testing.T) {
		s, err := NewARDirect(hs)
		require.NoError(t, err)
		assert.Equal(t, 16, s.NChains())
		assert.Equal(t, 2.0, s.MachinePow())
		assert.True(t, s.IsExact())
		assert.True(t, hs.Equal(s.Space()))
	})

	t.Run("NilSpace", func(t *testing.T) {
		_, err := NewARDirect(nil)
		assert.Error(t, err)
	})

	t.Run("InvalidChains", func(t *testing.T) {
		_, err := NewARDirect(hs, WithChains(0))
		assert.Error(t, err)
	})

	t.Run("MachinePowOverride", func(t *testing.T) {
		_, err := NewARDirect(hs, WithMachinePow(3))
		var mp *ErrMachinePow
		require.ErrorAs(t, err, &mp)
		assert.Equal(t, 3.0, mp.MachinePow)

		// The default passes.
		_, err = NewARDirect(hs, WithMachinePow(2))
		assert.NoError(t, err)

		// The check is deliberately narrow: non-integral overrides are
		// let through.
		_, err = NewARDirect(hs, WithMachinePow(2.5))
		assert.NoError(t, err)

		_, err = NewARDirect(hs, WithMachinePow(0))
		assert.Error(t, err)
	})
}

func TestSampleChainShape(t *testing.T) {
	for _, tc := range []struct {
		size, chains, length int
	}{
		{1, 1, 1},
		{3, 4, 2},
		{5, 2, 7},
	} {
		t.Run(fmt.Sprintf("D%dC%dL%d", tc.size, tc.chains, tc.length), func(t *testing.T) {
			hs := newSpin(t, tc.size)
			m := model.NewProduct(hs)
			vars := model.Variables{Params: m.InitParams()}

			s, err := NewARDirect(hs, WithChains(tc.chains))
			require.NoError(t, err)

			samples, _, err := s.SampleChain(m, vars, s.InitState(rng.New(0)), tc.length)
			require.NoError(t, err)

			require.Len(t, samples, tc.length)
			for _, step := range samples {
				require.Len(t, step, tc.chains)
				for _, row := range step {
					require.Len(t, row, tc.size)
					for _, v := range row {
						assert.Contains(t, hs.LocalStates(), v)
					}
				}
			}
		})
	}
}

func TestSampleChainInvalidLength(t *testing.T) {
	hs := newSpin(t, 2)
	m := model.NewProduct(hs)
	vars := model.Variables{Params: m.InitParams()}

	s, err := NewARDirect(hs)
	require.NoError(t, err)

	st := s.InitState(rng.New(1))
	for _, length := range []int{0, -3} {
		_, got, err := s.SampleChain(m, vars, st, length)
		assert.ErrorIs(t, err, ErrInvalidChainLength)
		assert.Equal(t, st, got, "failed call must not advance the state")
	}
}

func TestSampleChainDeterministicModel(t *testing.T) {
	hs := newSpin(t, 3)
	// All conditional mass on local state index 1, i.e. +1.
	m, err := model.NewConstant(hs, 0, 1)
	require.NoError(t, err)

	s, err := NewARDirect(hs, WithChains(2))
	require.NoError(t, err)

	var first [][][]float64
	for seed := uint64(0); seed < 4; seed++ {
		samples, _, err := s.SampleChain(m, model.Variables{}, s.InitState(rng.New(seed)), 3)
		require.NoError(t, err)
		for _, step := range samples {
			for _, row := range step {
				assert.Equal(t, []float64{1, 1, 1}, row)
			}
		}
		if first == nil {
			first = samples
		} else {
			assert.Equal(t, first, samples, "deterministic conditionals ignore the key")
		}
	}
}

func TestSampleChainStreamsDiffer(t *testing.T) {
	hs := newSpin(t, 8)
	m := model.NewProduct(hs)
	vars := model.Variables{Params: m.InitParams()}

	s, err := NewARDirect(hs, WithChains(4))
	require.NoError(t, err)

	// Different seeds give different joint samples.
	a, _, err := s.SampleChain(m, vars, s.InitState(rng.New(1)), 4)
	require.NoError(t, err)
	b, _, err := s.SampleChain(m, vars, s.InitState(rng.New(2)), 4)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	// Sequential calls from the threaded state give fresh streams.
	st := s.InitState(rng.New(1))
	first, st, err := s.SampleChain(m, vars, st, 4)
	require.NoError(t, err)
	second, _, err := s.SampleChain(m, vars, st, 4)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// Same seed replays the identical stream.
	replay, _, err := s.SampleChain(m, vars, s.InitState(rng.New(1)), 4)
	require.NoError(t, err)
	assert.Equal(t, first, replay)
}

func TestSampleChainFrequencies(t *testing.T) {
	hs, err := hilbert.Qubit(1)
	require.NoError(t, err)

	m := model.NewProduct(hs)
	// P(0) = 0.9 via conditional softmax.
	tr, err := m.WithLogits([]float64{math.Log(9), 0})
	require.NoError(t, err)
	vars := model.Variables{Params: tr}

	s, err := NewARDirect(hs, WithChains(64))
	require.NoError(t, err)

	samples, _, err := s.SampleChain(m, vars, s.InitState(rng.New(5)), 256)
	require.NoError(t, err)

	var zeros, total int
	for _, step := range samples {
		for _, row := range step {
			if row[0] == 0 {
				zeros++
			}
			total++
		}
	}
	assert.InDelta(t, 0.9, float64(zeros)/float64(total), 0.02)
}

func TestReset(t *testing.T) {
	hs := newSpin(t, 2)
	s, err := NewARDirect(hs)
	require.NoError(t, err)

	st := s.InitState(rng.New(9))
	assert.Equal(t, st, s.Reset(st), "direct sampling reset is the identity")
}

func TestSampleNext(t *testing.T) {
	hs := newSpin(t, 3)
	m := model.NewProduct(hs)
	vars := model.Variables{Params: m.InitParams()}

	s, err := NewARDirect(hs, WithChains(5))
	require.NoError(t, err)

	st := s.InitState(rng.New(4))
	batch, next, err := s.SampleNext(m, vars, st)
	require.NoError(t, err)
	require.Len(t, batch, 5)
	for _, row := range batch {
		assert.Len(t, row, 3)
	}
	assert.NotEqual(t, st, next)
}

// badShapeModel returns conditionals with a wrong batch dimension.
type badShapeModel struct {
	*model.Product
}

func (m badShapeModel) Conditional(vars model.Variables, cache model.Cache, sigma [][]float64, site int) ([][]float64, model.Cache, error) {
	return [][]float64{{0.5, 0.5}}, cache, nil
}

func TestSampleChainProbabilityShape(t *testing.T) {
	hs := newSpin(t, 2)
	m := badShapeModel{model.NewProduct(hs)}
	vars := model.Variables{Params: m.InitParams()}

	s, err := NewARDirect(hs, WithChains(4))
	require.NoError(t, err)

	_, _, err = s.SampleChain(m, vars, s.InitState(rng.New(1)), 1)
	var shape *ErrProbabilityShape
	assert.True(t, errors.As(err, &shape))
}
