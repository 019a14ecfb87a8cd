package seqmodel

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"namegen/internal/nn"
)

const (
	DefaultGateActivation = "sigmoid"
	DefaultCellActivation = "tanh"
)

type LSTMConfig struct {
	Categories int
	Vocab      int
	Hidden     int
	// Dropout is applied to the output logits of gradient-tracked steps.
	Dropout        float64
	Seed           int64
	GateActivation string
	CellActivation string
}

// LSTM is a single-layer LSTM cell followed by a linear projection to the
// vocabulary and a log-softmax. Gate rows are ordered input, forget, cell,
// output.
type LSTM struct {
	dims    Dims
	dropout float64
	rng     *rand.Rand
	gate    nn.Activation
	cell    nn.Activation

	wx *nn.Param
	wh *nn.Param
	b  *nn.Param
	wy *nn.Param
	by *nn.Param
}

// LSTMState is the (h, c) pair carried between steps.
type LSTMState struct {
	H []float64
	C []float64
}

func NewLSTM(cfg LSTMConfig) (*LSTM, error) {
	dims := Dims{Categories: cfg.Categories, Vocab: cfg.Vocab, Hidden: cfg.Hidden}
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if cfg.Dropout < 0 || cfg.Dropout >= 1 {
		return nil, fmt.Errorf("dropout must be in [0,1), got %f", cfg.Dropout)
	}
	gateName := cfg.GateActivation
	if gateName == "" {
		gateName = DefaultGateActivation
	}
	cellName := cfg.CellActivation
	if cellName == "" {
		cellName = DefaultCellActivation
	}
	gate, err := nn.GetActivation(gateName)
	if err != nil {
		return nil, err
	}
	cell, err := nn.GetActivation(cellName)
	if err != nil {
		return nil, err
	}

	h := dims.Hidden
	m := &LSTM{
		dims:    dims,
		dropout: cfg.Dropout,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		gate:    gate,
		cell:    cell,
		wx:      nn.NewParam("lstm.weight_ih", 4*h, dims.Input()),
		wh:      nn.NewParam("lstm.weight_hh", 4*h, h),
		b:       nn.NewParam("lstm.bias", 4*h, 1),
		wy:      nn.NewParam("fc.weight", dims.Vocab, h),
		by:      nn.NewParam("fc.bias", dims.Vocab, 1),
	}
	scale := 1 / math.Sqrt(float64(h))
	for _, p := range m.Params() {
		p.Uniform(m.rng, scale)
	}
	return m, nil
}

func (m *LSTM) Dims() Dims {
	return m.dims
}

func (m *LSTM) Params() []*nn.Param {
	return []*nn.Param{m.wx, m.wh, m.b, m.wy, m.by}
}

func (m *LSTM) InitState() State {
	return &LSTMState{
		H: make([]float64, m.dims.Hidden),
		C: make([]float64, m.dims.Hidden),
	}
}

// Step runs one inference step; dropout is not applied.
func (m *LSTM) Step(category, char []float64, state State) ([]float64, State, error) {
	s, err := m.forward(category, char, state, false)
	if err != nil {
		return nil, nil, err
	}
	return s.logp, &LSTMState{H: s.h, C: s.c}, nil
}

func (m *LSTM) Record() Tape {
	return &lstmTape{m: m}
}

// stepCache keeps the activations of one step for the backward pass.
type stepCache struct {
	x     []float64
	hPrev []float64
	cPrev []float64
	z     []float64 // gate pre-activations
	a     []float64 // gate activations
	c     []float64
	tc    []float64 // cell activation of c
	h     []float64
	mask  []float64
	logp  []float64

	from int
	out  *LSTMState
}

func (m *LSTM) forward(category, char []float64, state State, train bool) (*stepCache, error) {
	if err := checkInputs(m.dims, category, char); err != nil {
		return nil, err
	}
	st, ok := state.(*LSTMState)
	if !ok || st == nil || len(st.H) != m.dims.Hidden || len(st.C) != m.dims.Hidden {
		return nil, fmt.Errorf("%w: %T", ErrInvalidState, state)
	}

	h := m.dims.Hidden
	x := nn.Concat(category, char)

	z := mat.NewVecDense(4*h, nil)
	z.MulVec(m.wx.Matrix(), mat.NewVecDense(len(x), x))
	var zh mat.VecDense
	zh.MulVec(m.wh.Matrix(), mat.NewVecDense(h, st.H))
	z.AddVec(z, &zh)
	z.AddVec(z, m.b.Vector())

	s := &stepCache{
		x:     x,
		hPrev: st.H,
		cPrev: st.C,
		z:     append([]float64(nil), z.RawVector().Data...),
		a:     make([]float64, 4*h),
		c:     make([]float64, h),
		tc:    make([]float64, h),
		h:     make([]float64, h),
		from:  -1,
	}
	for j := 0; j < h; j++ {
		s.a[j] = m.gate.Func(s.z[j])
		s.a[h+j] = m.gate.Func(s.z[h+j])
		s.a[2*h+j] = m.cell.Func(s.z[2*h+j])
		s.a[3*h+j] = m.gate.Func(s.z[3*h+j])

		s.c[j] = s.a[h+j]*st.C[j] + s.a[j]*s.a[2*h+j]
		s.tc[j] = m.cell.Func(s.c[j])
		s.h[j] = s.a[3*h+j] * s.tc[j]
	}

	var y mat.VecDense
	y.MulVec(m.wy.Matrix(), mat.NewVecDense(h, s.h))
	y.AddVec(&y, m.by.Vector())
	logits := append([]float64(nil), y.RawVector().Data...)

	if train && m.dropout > 0 {
		keep := 1 - m.dropout
		s.mask = make([]float64, len(logits))
		for k := range logits {
			if m.rng.Float64() >= m.dropout {
				s.mask[k] = 1 / keep
			}
			logits[k] *= s.mask[k]
		}
	}
	s.logp = nn.LogSoftmax(logits)
	return s, nil
}
