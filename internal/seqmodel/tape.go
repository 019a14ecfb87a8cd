package seqmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type lstmTape struct {
	m     *LSTM
	steps []*stepCache
	done  bool
}

func (t *lstmTape) Len() int {
	return len(t.steps)
}

func (t *lstmTape) Step(category, char []float64, state State) ([]float64, State, error) {
	if t.done {
		return nil, nil, ErrTapeConsumed
	}
	s, err := t.m.forward(category, char, state, true)
	if err != nil {
		return nil, nil, err
	}
	// Gradients only chain through states this tape produced.
	if prev, ok := state.(*LSTMState); ok {
		for k := len(t.steps) - 1; k >= 0; k-- {
			if t.steps[k].out == prev {
				s.from = k
				break
			}
		}
	}
	s.out = &LSTMState{H: s.h, C: s.c}
	t.steps = append(t.steps, s)
	return s.logp, s.out, nil
}

func (t *lstmTape) Backward(grads [][]float64) error {
	if t.done {
		return ErrTapeConsumed
	}
	if len(grads) != len(t.steps) {
		return fmt.Errorf("%w: %d gradients for %d steps", ErrDimensionMismatch, len(grads), len(t.steps))
	}
	for i, g := range grads {
		if len(g) != t.m.dims.Vocab {
			return fmt.Errorf("%w: gradient %d has %d entries, want %d", ErrDimensionMismatch, i, len(g), t.m.dims.Vocab)
		}
	}
	t.done = true

	m := t.m
	h := m.dims.Hidden
	v := m.dims.Vocab
	wy, wh := m.wy.Matrix(), m.wh.Matrix()
	dwx, dwh, dwy := m.wx.GradMatrix(), m.wh.GradMatrix(), m.wy.GradMatrix()

	dhOut := make([][]float64, len(t.steps))
	dcOut := make([][]float64, len(t.steps))

	for i := len(t.steps) - 1; i >= 0; i-- {
		s := t.steps[i]

		// log-softmax: dlogits = g - softmax * sum(g)
		sum := floats.Sum(grads[i])
		dlogits := make([]float64, v)
		for k := range dlogits {
			dlogits[k] = grads[i][k] - math.Exp(s.logp[k])*sum
			if s.mask != nil {
				dlogits[k] *= s.mask[k]
			}
		}
		dl := mat.NewVecDense(v, dlogits)
		dwy.RankOne(dwy, 1, dl, mat.NewVecDense(h, s.h))
		floats.Add(m.by.Grad, dlogits)

		var dhv mat.VecDense
		dhv.MulVec(wy.T(), dl)
		dh := dhv.RawVector().Data
		if dhOut[i] != nil {
			floats.Add(dh, dhOut[i])
		}

		dz := make([]float64, 4*h)
		dcPrev := make([]float64, h)
		for j := 0; j < h; j++ {
			in, forget, cand, out := s.a[j], s.a[h+j], s.a[2*h+j], s.a[3*h+j]

			dc := dh[j] * out * m.cell.Derivative(s.c[j])
			if dcOut[i] != nil {
				dc += dcOut[i][j]
			}
			dcPrev[j] = dc * forget

			dz[j] = dc * cand * m.gate.Derivative(s.z[j])
			dz[h+j] = dc * s.cPrev[j] * m.gate.Derivative(s.z[h+j])
			dz[2*h+j] = dc * in * m.cell.Derivative(s.z[2*h+j])
			dz[3*h+j] = dh[j] * s.tc[j] * m.gate.Derivative(s.z[3*h+j])
		}

		dzv := mat.NewVecDense(4*h, dz)
		dwx.RankOne(dwx, 1, dzv, mat.NewVecDense(len(s.x), s.x))
		dwh.RankOne(dwh, 1, dzv, mat.NewVecDense(h, s.hPrev))
		floats.Add(m.b.Grad, dz)

		if s.from >= 0 {
			var dhp mat.VecDense
			dhp.MulVec(wh.T(), dzv)
			dhOut[s.from] = accumulate(dhOut[s.from], dhp.RawVector().Data)
			dcOut[s.from] = accumulate(dcOut[s.from], dcPrev)
		}
	}
	return nil
}

func accumulate(dst, src []float64) []float64 {
	if dst == nil {
		return append([]float64(nil), src...)
	}
	floats.Add(dst, src)
	return dst
}
