package trainer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namegen/internal/examples"
	"namegen/internal/optim"
	"namegen/internal/seqmodel"
	"namegen/internal/vocab"
)

type countingModel struct {
	*seqmodel.LSTM
	steps int
}

func (m *countingModel) Record() seqmodel.Tape {
	return &countingTape{Tape: m.LSTM.Record(), owner: m}
}

type countingTape struct {
	seqmodel.Tape
	owner *countingModel
}

func (t *countingTape) Step(category, char []float64, state seqmodel.State) ([]float64, seqmodel.State, error) {
	t.owner.steps++
	return t.Tape.Step(category, char, state)
}

type fixedSource struct {
	ex    examples.Example
	calls int
}

func (s *fixedSource) Next() (examples.Example, error) {
	s.calls++
	return s.ex, nil
}

func newABFixture(t *testing.T, lr float64) (*Trainer, examples.Example) {
	t.Helper()
	alphabet, err := vocab.NewAlphabet("ab")
	require.NoError(t, err)
	enc, err := vocab.NewEncoder(alphabet, []string{"X"})
	require.NoError(t, err)
	model, err := seqmodel.NewLSTM(seqmodel.LSTMConfig{
		Categories: enc.NumCategories(),
		Vocab:      enc.VocabSize(),
		Hidden:     8,
		Seed:       3,
	})
	require.NoError(t, err)
	tr, err := New(model, optim.SGD{}, lr)
	require.NoError(t, err)
	ex, err := examples.Build(enc, "X", "ab")
	require.NoError(t, err)
	return tr, ex
}

func TestNewValidation(t *testing.T) {
	model, err := seqmodel.NewLSTM(seqmodel.LSTMConfig{Categories: 1, Vocab: 3, Hidden: 2})
	require.NoError(t, err)
	_, err = New(nil, optim.SGD{}, 0.1)
	assert.Error(t, err)
	_, err = New(model, nil, 0.1)
	assert.Error(t, err)
	_, err = New(model, optim.SGD{}, 0)
	assert.Error(t, err)
}

func TestTrainStepRunsOneModelStepPerCharacter(t *testing.T) {
	tr, ex := newABFixture(t, 0.1)
	counting := &countingModel{LSTM: tr.Model().(*seqmodel.LSTM)}
	tr.model = counting

	res, err := tr.TrainStep(ex.CategoryVec, ex.Inputs, ex.Targets)
	require.NoError(t, err)
	assert.Equal(t, 2, counting.steps)
	assert.GreaterOrEqual(t, res.Loss, 0.0)
	assert.Len(t, res.Output, 3)
}

func TestTrainStepRejectsEmptyAndMismatched(t *testing.T) {
	tr, ex := newABFixture(t, 0.1)
	_, err := tr.TrainStep(ex.CategoryVec, nil, nil)
	assert.ErrorIs(t, err, ErrEmptySequence)

	_, err = tr.TrainStep(ex.CategoryVec, ex.Inputs, ex.Targets[:1])
	assert.ErrorIs(t, err, seqmodel.ErrDimensionMismatch)

	_, err = tr.TrainStep(ex.CategoryVec, ex.Inputs, []int{1, 7})
	assert.ErrorIs(t, err, seqmodel.ErrDimensionMismatch)
}

func TestSecondIdenticalStepHasLowerLoss(t *testing.T) {
	tr, ex := newABFixture(t, 0.1)
	first, err := tr.TrainStep(ex.CategoryVec, ex.Inputs, ex.Targets)
	require.NoError(t, err)
	second, err := tr.TrainStep(ex.CategoryVec, ex.Inputs, ex.Targets)
	require.NoError(t, err)
	assert.Less(t, second.Loss, first.Loss)
	assert.Equal(t, []int{1, 2}, ex.Targets)
}

func TestSecondIdenticalStepHasLowerLossAtDefaultSize(t *testing.T) {
	alphabet, err := vocab.NewAlphabet("ab")
	require.NoError(t, err)
	enc, err := vocab.NewEncoder(alphabet, []string{"X"})
	require.NoError(t, err)
	ex, err := examples.Build(enc, "X", "ab")
	require.NoError(t, err)

	for seed := int64(0); seed < 5; seed++ {
		model, err := seqmodel.NewLSTM(seqmodel.LSTMConfig{
			Categories: enc.NumCategories(),
			Vocab:      enc.VocabSize(),
			Hidden:     128,
			Seed:       seed,
		})
		require.NoError(t, err)
		tr, err := New(model, optim.SGD{}, 0.0005)
		require.NoError(t, err)

		first, err := tr.TrainStep(ex.CategoryVec, ex.Inputs, ex.Targets)
		require.NoError(t, err)
		second, err := tr.TrainStep(ex.CategoryVec, ex.Inputs, ex.Targets)
		require.NoError(t, err)
		assert.Less(t, second.Loss, first.Loss, "seed %d", seed)
	}
}

func TestRepeatedTrainingLowersLoss(t *testing.T) {
	tr, ex := newABFixture(t, 0.1)
	first, err := tr.TrainStep(ex.CategoryVec, ex.Inputs, ex.Targets)
	require.NoError(t, err)

	var last Result
	for i := 0; i < 300; i++ {
		last, err = tr.TrainStep(ex.CategoryVec, ex.Inputs, ex.Targets)
		require.NoError(t, err)
	}
	assert.Less(t, last.Loss, first.Loss)
}

func TestRunAveragesAndReports(t *testing.T) {
	tr, ex := newABFixture(t, 0.05)
	src := &fixedSource{ex: ex}
	var progress []Progress

	report, err := tr.Run(context.Background(), src, LoopConfig{
		Iterations:        20,
		ReportInterval:    5,
		AveragingInterval: 4,
	}, func(p Progress) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.Equal(t, 20, src.calls)
	assert.Equal(t, 20, report.Iterations)
	assert.Len(t, report.AverageLosses, 5)
	require.Len(t, progress, 4)
	assert.Equal(t, 5, progress[0].Iteration)
	assert.Equal(t, 25, progress[0].Percent())
	assert.Equal(t, 100, progress[3].Percent())
	assert.Equal(t, report.FinalLoss, progress[3].Loss)
	for _, l := range report.AverageLosses {
		assert.GreaterOrEqual(t, l, 0.0)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	tr, ex := newABFixture(t, 0.05)
	src := &fixedSource{ex: ex}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := tr.Run(ctx, src, LoopConfig{Iterations: 10}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Iterations)
	assert.Equal(t, 0, src.calls)
}

func TestRunValidatesConfig(t *testing.T) {
	tr, ex := newABFixture(t, 0.05)
	_, err := tr.Run(context.Background(), &fixedSource{ex: ex}, LoopConfig{}, nil)
	assert.Error(t, err)
	_, err = tr.Run(context.Background(), nil, LoopConfig{Iterations: 1}, nil)
	assert.Error(t, err)
}

func TestProgressFormatting(t *testing.T) {
	p := Progress{Iteration: 5000, Total: 100000, Elapsed: 125 * time.Second, Loss: 2.71828}
	assert.Equal(t, "2m 5s (5000 5%) 2.7183", p.String())
	assert.Equal(t, "0m 0s", FormatElapsed(0))
	assert.True(t, strings.HasPrefix(FormatElapsed(61*time.Minute), "61m"))
}
