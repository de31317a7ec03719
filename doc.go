// Package vmc estimates expectation values of quantum operators over a
// variational wavefunction by Monte Carlo sampling of a discrete
// configuration space.
//
// The core pieces are:
//
//   - sampler.ARDirect: exact, rejection-free sampling for autoregressive
//     models, one degree of freedom at a time
//   - kernels: local estimator kernels (plain, squared, mixed-state),
//     with chunked variants that bound peak memory
//   - Expect: operator-polymorphic estimation that dispatches on the
//     (state kind, operator kind) pair and reduces per-sample local
//     values into annotated statistics (mean, error, variance, R-hat)
//
// # Quick Start
//
//	hs, _ := hilbert.Spin(8)
//	m := model.NewProduct(hs)
//
//	sa, _ := sampler.NewARDirect(hs, sampler.WithChains(16))
//	vs, _ := vmc.NewMCState(m, sa, rng.New(42),
//	    vmc.WithParameters(m.InitParams()),
//	    vmc.WithChainLength(64),
//	)
//
//	op, _ := operator.NewIdentity(hs)
//	st, _ := vs.Expect(op)
//	fmt.Println(st) // 1.0000 ± 0.0000 [var=0.0000, R̂=1.0000]
//
// All randomness is threaded through immutable rng.Key values: the same
// seed always replays the same run, and there is no global generator.
package vmc
