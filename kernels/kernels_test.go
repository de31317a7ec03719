package kernels

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vmc/model"
)

// sumLogPsi is a toy log-amplitude: logψ(σ) = Σ_i σ_i, as a complex
// value. Simple enough to hand-compute expected estimator values.
func sumLogPsi(_ model.Variables, sigma [][]float64) ([]complex128, error) {
	out := make([]complex128, len(sigma))
	for b, row := range sigma {
		var s float64
		for _, v := range row {
			s += v
		}
		out[b] = complex(s, 0)
	}
	return out, nil
}

// phaseLogPsi adds an imaginary part so complex arithmetic is exercised:
// logψ(σ) = Σ σ_i + i·Σ σ_i².
func phaseLogPsi(_ model.Variables, sigma [][]float64) ([]complex128, error) {
	out := make([]complex128, len(sigma))
	for b, row := range sigma {
		var re, im float64
		for _, v := range row {
			re += v
			im += v * v
		}
		out[b] = complex(re, im)
	}
	return out, nil
}

func TestLocalValue(t *testing.T) {
	t.Run("HandComputed", func(t *testing.T) {
		sigma := []float64{0}
		sigmap := [][]float64{{1}, {2}}
		mel := []complex128{1, complex(0, 2)}

		got, err := LocalValue(sumLogPsi, model.Variables{}, sigma, sigmap, mel)
		require.NoError(t, err)

		want := cmplx.Exp(1) + complex(0, 2)*cmplx.Exp(2)
		assert.InDelta(t, real(want), real(got), 1e-12)
		assert.InDelta(t, imag(want), imag(got), 1e-12)
	})

	t.Run("IdentityLike", func(t *testing.T) {
		// σp = σ and mel = 1 is an identity estimator: exactly 1.
		sigma := []float64{1, -1}
		got, err := LocalValue(sumLogPsi, model.Variables{}, sigma, [][]float64{{1, -1}}, []complex128{1})
		require.NoError(t, err)
		assert.Equal(t, complex128(1), got)
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		_, err := LocalValue(sumLogPsi, model.Variables{}, []float64{0}, [][]float64{{1}}, []complex128{1, 2})
		var shape *ErrShapeMismatch
		assert.True(t, errors.As(err, &shape))
	})
}

func TestLocalValueSquared(t *testing.T) {
	sigma := []float64{0}
	sigmap := [][]float64{{1}, {-1}}
	mel := []complex128{complex(0, 1), 1}

	v, err := LocalValue(phaseLogPsi, model.Variables{}, sigma, sigmap, mel)
	require.NoError(t, err)

	sq, err := LocalValueSquared(phaseLogPsi, model.Variables{}, sigma, sigmap, mel)
	require.NoError(t, err)

	assert.Zero(t, imag(sq), "squared kernel is real")
	assert.GreaterOrEqual(t, real(sq), 0.0)
	assert.InDelta(t, cmplx.Abs(v)*cmplx.Abs(v), real(sq), 1e-12)
}

func TestOpOp(t *testing.T) {
	sigma := []float64{2}
	sigmap := [][]float64{{3}}
	mel := []complex128{complex(0.5, 0)}

	got, err := OpOp(sumLogPsi, model.Variables{}, sigma, sigmap, mel)
	require.NoError(t, err)

	// logψ([3,2]) - logψ([2,2]) = 5 - 4 = 1.
	want := complex(0.5, 0) * cmplx.Exp(1)
	assert.InDelta(t, real(want), real(got), 1e-12)
	assert.InDelta(t, imag(want), imag(got), 1e-12)
}

func batchFixture() (sigma [][]float64, sigmap [][][]float64, mel [][]complex128) {
	const batch, nConn, size = 11, 3, 4
	for b := 0; b < batch; b++ {
		row := make([]float64, size)
		for i := range row {
			row[i] = math.Sin(float64(b*size + i))
		}
		sigma = append(sigma, row)

		conns := make([][]float64, nConn)
		els := make([]complex128, nConn)
		for k := range conns {
			conn := make([]float64, size)
			for i := range conn {
				conn[i] = math.Cos(float64(b + k*size + i))
			}
			conns[k] = conn
			els[k] = complex(float64(k)+0.5, float64(b)*0.1)
		}
		sigmap = append(sigmap, conns)
		mel = append(mel, els)
	}
	return sigma, sigmap, mel
}

func TestEvaluate(t *testing.T) {
	sigma, sigmap, mel := batchFixture()

	out, err := Evaluate(LocalValue, phaseLogPsi, model.Variables{}, sigma, sigmap, mel)
	require.NoError(t, err)
	require.Len(t, out, len(sigma))

	for b := range sigma {
		v, err := LocalValue(phaseLogPsi, model.Variables{}, sigma[b], sigmap[b], mel[b])
		require.NoError(t, err)
		assert.Equal(t, v, out[b])
	}
}

func TestEvaluateBatchMismatch(t *testing.T) {
	sigma, sigmap, mel := batchFixture()

	var shape *ErrShapeMismatch
	_, err := Evaluate(LocalValue, phaseLogPsi, model.Variables{}, sigma, sigmap[:len(sigmap)-1], mel)
	assert.True(t, errors.As(err, &shape))

	_, err = Evaluate(LocalValue, phaseLogPsi, model.Variables{}, sigma, sigmap, mel[:len(mel)-1])
	assert.True(t, errors.As(err, &shape))
}

func TestChunkedMatchesUnchunked(t *testing.T) {
	sigma, sigmap, mel := batchFixture()

	want, err := Evaluate(LocalValue, phaseLogPsi, model.Variables{}, sigma, sigmap, mel)
	require.NoError(t, err)

	for _, chunkSize := range []int{0, 1, 2, 3, 7, 100} {
		for _, parallelism := range []int{1, 4} {
			name := fmt.Sprintf("chunk%d_par%d", chunkSize, parallelism)
			t.Run(name, func(t *testing.T) {
				got, err := LocalValuesChunked(phaseLogPsi, model.Variables{}, sigma, sigmap, mel,
					WithChunkSize(chunkSize), WithParallelism(parallelism))
				require.NoError(t, err)
				require.Len(t, got, len(want))
				for b := range want {
					assert.InDelta(t, real(want[b]), real(got[b]), 1e-10*math.Max(1, math.Abs(real(want[b]))))
					assert.InDelta(t, imag(want[b]), imag(got[b]), 1e-10*math.Max(1, math.Abs(imag(want[b]))))
				}
			})
		}
	}
}

func TestSquaredChunked(t *testing.T) {
	sigma, sigmap, mel := batchFixture()

	plain, err := LocalValuesChunked(phaseLogPsi, model.Variables{}, sigma, sigmap, mel, WithChunkSize(5))
	require.NoError(t, err)

	squared, err := LocalValuesSquaredChunked(phaseLogPsi, model.Variables{}, sigma, sigmap, mel, WithChunkSize(5))
	require.NoError(t, err)

	for b := range plain {
		assert.Zero(t, imag(squared[b]))
		assert.GreaterOrEqual(t, real(squared[b]), 0.0)
		a := cmplx.Abs(plain[b])
		assert.InDelta(t, a*a, real(squared[b]), 1e-10*math.Max(1, a*a))
	}
}

func TestOpOpChunkedMatchesPlain(t *testing.T) {
	sigma, sigmap, mel := batchFixture()

	want, err := Evaluate(OpOp, phaseLogPsi, model.Variables{}, sigma, sigmap, mel)
	require.NoError(t, err)

	got, err := OpOpChunked(phaseLogPsi, model.Variables{}, sigma, sigmap, mel, WithChunkSize(4))
	require.NoError(t, err)

	for b := range want {
		assert.InDelta(t, real(want[b]), real(got[b]), 1e-10*math.Max(1, math.Abs(real(want[b]))))
		assert.InDelta(t, imag(want[b]), imag(got[b]), 1e-10*math.Max(1, math.Abs(imag(want[b]))))
	}
}

func TestChunkedPropagatesErrors(t *testing.T) {
	sigma, sigmap, mel := batchFixture()

	boom := errors.New("boom")
	failing := func(_ model.Variables, _ [][]float64) ([]complex128, error) {
		return nil, boom
	}

	_, err := LocalValuesChunked(failing, model.Variables{}, sigma, sigmap, mel, WithChunkSize(2))
	assert.ErrorIs(t, err, boom)

	_, err = LocalValuesChunked(failing, model.Variables{}, sigma, sigmap, mel, WithChunkSize(2), WithParallelism(4))
	assert.ErrorIs(t, err, boom)
}

func TestChunkedBadLogPsiLength(t *testing.T) {
	sigma, sigmap, mel := batchFixture()

	short := func(_ model.Variables, rows [][]float64) ([]complex128, error) {
		return make([]complex128, len(rows)-1), nil
	}

	var shape *ErrShapeMismatch
	_, err := LocalValuesChunked(short, model.Variables{}, sigma, sigmap, mel)
	assert.True(t, errors.As(err, &shape))
}

func BenchmarkLocalValuesChunked(b *testing.B) {
	const batch, nConn, size = 256, 8, 16
	sigma := make([][]float64, batch)
	sigmap := make([][][]float64, batch)
	mel := make([][]complex128, batch)
	for i := range sigma {
		sigma[i] = make([]float64, size)
		conns := make([][]float64, nConn)
		els := make([]complex128, nConn)
		for k := range conns {
			conns[k] = make([]float64, size)
			els[k] = complex(1, 0)
		}
		sigmap[i] = conns
		mel[i] = els
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := LocalValuesChunked(sumLogPsi, model.Variables{}, sigma, sigmap, mel, WithChunkSize(128))
		if err != nil {
			b.Fatal(err)
		}
	}
}
