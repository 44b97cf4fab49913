package scoring

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peekknuf/anonscore/internal/dataset"
	"github.com/peekknuf/anonscore/internal/distance"
)

func repeat(pattern []dataset.Value, times int) []dataset.Value {
	out := make([]dataset.Value, 0, len(pattern)*times)
	for i := 0; i < times; i++ {
		out = append(out, pattern...)
	}
	return out
}

func mustDataset(t testing.TB, name string, cols map[string][]dataset.Value, order ...string) *dataset.Dataset {
	t.Helper()
	ds := dataset.New(name)
	for _, col := range order {
		require.NoError(t, ds.AddColumn(col, cols[col]))
	}
	return ds
}

func sampleOriginal(t testing.TB) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewPCG(42, 42))
	n := 60
	category := repeat([]dataset.Value{"A", "B", "C"}, n/3)
	salary := make([]dataset.Value, n)
	names := make([]dataset.Value, n)
	for i := 0; i < n; i++ {
		salary[i] = 75000 + 15000*rng.NormFloat64()
		names[i] = fmt.Sprintf("Person_%d", i)
	}
	return mustDataset(t, "people", map[string][]dataset.Value{
		"category": category,
		"salary":   salary,
		"name":     names,
	}, "category", "salary", "name")
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		col  []dataset.Value
		want ColumnType
	}{
		{"empty", nil, Categorical},
		{"all missing", []dataset.Value{nil, nil, nil}, Categorical},
		{"numbers", []dataset.Value{1, 2.5, int64(3)}, Numerical},
		{"numeric strings", []dataset.Value{"1", " 2.5 ", "-3e2", nil}, Numerical},
		{"dates", []dataset.Value{time.Now(), time.Now().Add(time.Hour)}, Numerical},
		{"low cardinality", repeat([]dataset.Value{"A", "B", "C"}, 10), Categorical},
		{"high cardinality", []dataset.Value{"ann", "bob", "cid", "dan"}, Text},
		{"ratio of exactly one half is text", []dataset.Value{"a", "a", "b", "b"}, Text},
		{"one unparseable value", []dataset.Value{"1", "2", "x", "3"}, Text},
		{"date strings are not numeric", repeat([]dataset.Value{"2020-01-01", "2020-01-02"}, 5), Categorical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.col))
		})
	}
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	cols := []ColumnScore{
		{Name: "a", Type: Numerical, Distance: 0.2},
		{Name: "b", Type: Categorical, Distance: 0.8},
	}

	t.Run("equal weights", func(t *testing.T) {
		res := Aggregate(cols, nil)
		require.Equal(t, 0.5, res.GlobalDistance)
		require.Equal(t, 50.5, res.GlobalScore)
		require.Equal(t, 2, res.TotalColumns)
		require.Equal(t, []string{"a", "b"}, res.Columns)
		require.Equal(t, map[string]ColumnType{"a": Numerical, "b": Categorical}, res.ColumnTypes)
		require.Equal(t, "Moderate Anonymization - Reasonable privacy protection", res.Interpretation)
		require.False(t, res.NoSignal)
	})

	t.Run("zero weight removes a column", func(t *testing.T) {
		res := Aggregate(cols, map[string]float64{"a": 0})
		require.Equal(t, 0.8, res.GlobalDistance)
		require.Equal(t, 0.2, res.ColumnScores["a"])
	})

	t.Run("missing weight equals one", func(t *testing.T) {
		implicit := Aggregate(cols, map[string]float64{"b": 3})
		explicit := Aggregate(cols, map[string]float64{"a": 1, "b": 3})
		require.Equal(t, explicit.GlobalDistance, implicit.GlobalDistance)
		require.Equal(t, 0.65, implicit.GlobalDistance)
	})

	t.Run("negative weight counts as zero", func(t *testing.T) {
		res := Aggregate(cols, map[string]float64{"b": -2})
		require.Equal(t, 0.2, res.GlobalDistance)
	})

	t.Run("no columns carries no signal", func(t *testing.T) {
		res := Aggregate(nil, nil)
		require.True(t, res.NoSignal)
		require.Equal(t, 0.0, res.GlobalDistance)
		require.Equal(t, 1.0, res.GlobalScore)
		require.Zero(t, res.TotalColumns)
	})

	t.Run("rounding", func(t *testing.T) {
		res := Aggregate([]ColumnScore{{Name: "x", Distance: 0.123456}}, nil)
		require.Equal(t, 0.1235, res.GlobalDistance)
		require.Equal(t, 0.1235, res.ColumnScores["x"])
		require.Equal(t, 13.22, res.GlobalScore)
	})
}

func TestInterpret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  string
	}{
		{1, "Very Low Anonymization - Data is largely unchanged"},
		{19.99, "Very Low Anonymization - Data is largely unchanged"},
		{20, "Low Anonymization - Some changes but patterns remain"},
		{40, "Moderate Anonymization - Reasonable privacy protection"},
		{60, "High Anonymization - Strong privacy protection"},
		{79.99, "High Anonymization - Strong privacy protection"},
		{80, "Very High Anonymization - Maximum privacy protection"},
		{100, "Very High Anonymization - Maximum privacy protection"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Interpret(tt.score), "score %v", tt.score)
	}
}

func TestScoreColumn(t *testing.T) {
	t.Parallel()

	s := New()
	abc := repeat([]dataset.Value{"A", "B", "C"}, 10)

	t.Run("identical categorical column", func(t *testing.T) {
		cs := s.ScoreColumn("cat", abc, abc)
		require.Equal(t, Categorical, cs.Type)
		require.InDelta(t, 0, cs.Distance, 1e-9)
		require.Len(t, cs.Components, 2)
	})

	t.Run("disjoint categories scattered across rows", func(t *testing.T) {
		x := repeat([]dataset.Value{"A", "B", "C"}, 9)
		y := repeat([]dataset.Value{"X", "X", "X", "Y", "Y", "Y", "Z", "Z", "Z"}, 3)
		cs := s.ScoreColumn("cat", x, y)
		require.InDelta(t, 1, cs.Distance, 1e-9)
	})

	t.Run("disjoint relabeling keeps association", func(t *testing.T) {
		xyz := repeat([]dataset.Value{"X", "Y", "Z"}, 10)
		cs := s.ScoreColumn("cat", abc, xyz)
		require.InDelta(t, 0.5, cs.Distance, 1e-9)
	})

	t.Run("constant replacement falls back per policy", func(t *testing.T) {
		cs := s.ScoreColumn("cat", abc, repeat([]dataset.Value{"Anonymous"}, 30))
		require.Equal(t, distance.ReasonConstant, cs.Components[0].Degenerate())
		require.Equal(t, 0.0, cs.Components[0].Value)
		require.Equal(t, 1.0, cs.Components[1].Value)
		require.Equal(t, []string{"association:constant"}, cs.DegenerateReasons())
		require.InDelta(t, 0.5, cs.Distance, 1e-9)
	})

	t.Run("hashed numbers drift to text", func(t *testing.T) {
		orig := []dataset.Value{"1", "2", "3", "4"}
		hashed := []dataset.Value{"6b86b2", "d4735e", "4e0740", "4b2277"}
		cs := s.ScoreColumn("id", orig, hashed)
		require.Equal(t, Numerical, cs.Type)
		require.Equal(t, Text, cs.TransformedType)
		require.True(t, cs.TypeDrift)
		require.Equal(t, 1.0, cs.Distance)
	})

	t.Run("nulled column is not drift", func(t *testing.T) {
		cs := s.ScoreColumn("id", []dataset.Value{1, 2, 3}, []dataset.Value{nil, nil, nil})
		require.False(t, cs.TypeDrift)
		require.Equal(t, 1.0, cs.Distance)
	})

	t.Run("custom policy", func(t *testing.T) {
		custom := New(WithPolicy(func(m Metric, reason distance.Reason) float64 {
			if m == MetricAssociation && reason == distance.ReasonConstant {
				return 1
			}
			return DefaultPolicy(m, reason)
		}))
		cs := custom.ScoreColumn("cat", abc, repeat([]dataset.Value{"Anonymous"}, 30))
		require.Equal(t, 1.0, cs.Distance)
	})
}

func TestScore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("identical datasets score the minimum", func(t *testing.T) {
		orig := sampleOriginal(t)
		res, err := New().Score(ctx, orig, orig)
		require.NoError(t, err)
		require.Equal(t, 1.0, res.GlobalScore)
		require.Equal(t, 0.0, res.GlobalDistance)
		require.Equal(t, []string{"category", "salary", "name"}, res.Columns)
		require.Equal(t, map[string]ColumnType{
			"category": Categorical,
			"salary":   Numerical,
			"name":     Text,
		}, res.ColumnTypes)
		require.Equal(t, "Very Low Anonymization - Data is largely unchanged", res.Interpretation)
	})

	t.Run("shape mismatch is fatal", func(t *testing.T) {
		orig := sampleOriginal(t)
		short := mustDataset(t, "short", map[string][]dataset.Value{
			"category": {"A"}, "salary": {1}, "name": {"x"},
		}, "category", "salary", "name")
		_, err := New().Score(ctx, orig, short)
		require.ErrorIs(t, err, ErrShapeMismatch)

		narrow := mustDataset(t, "narrow", map[string][]dataset.Value{"a": {1}}, "a")
		wide := mustDataset(t, "wide", map[string][]dataset.Value{"a": {1}, "b": {2}}, "a", "b")
		_, err = New().Score(ctx, narrow, wide)
		require.True(t, errors.Is(err, ErrShapeMismatch))
	})

	t.Run("nil dataset", func(t *testing.T) {
		_, err := New().Score(ctx, nil, sampleOriginal(t))
		require.ErrorIs(t, err, ErrNilDataset)
	})

	t.Run("all null column still scores", func(t *testing.T) {
		orig := mustDataset(t, "o", map[string][]dataset.Value{"col1": {nil, nil, nil}}, "col1")
		res, err := New().Score(ctx, orig, orig)
		require.NoError(t, err)
		require.Equal(t, Categorical, res.ColumnTypes["col1"])
		require.GreaterOrEqual(t, res.GlobalScore, 1.0)
		require.LessOrEqual(t, res.GlobalScore, 100.0)
	})

	t.Run("heavier transformation scores higher", func(t *testing.T) {
		orig := sampleOriginal(t)
		cat, _ := orig.Column("category")
		sal, _ := orig.Column("salary")
		names, _ := orig.Column("name")

		rng := rand.New(rand.NewPCG(9, 9))
		noisy := make([]dataset.Value, len(sal))
		for i, v := range sal {
			noisy[i] = v.(float64) + 500*rng.NormFloat64()
		}
		light := mustDataset(t, "light", map[string][]dataset.Value{
			"category": cat, "salary": noisy, "name": names,
		}, "category", "salary", "name")

		heavy := mustDataset(t, "heavy", map[string][]dataset.Value{
			"category": repeat([]dataset.Value{"X"}, len(cat)),
			"salary":   make([]dataset.Value, len(sal)),
			"name":     repeat([]dataset.Value{"Anonymous"}, len(names)),
		}, "category", "salary", "name")

		lightRes, err := New().Score(ctx, orig, light)
		require.NoError(t, err)
		heavyRes, err := New().Score(ctx, orig, heavy)
		require.NoError(t, err)

		require.Less(t, lightRes.GlobalScore, 20.0)
		require.Greater(t, heavyRes.GlobalScore, 60.0)
	})

	t.Run("weights change the global distance", func(t *testing.T) {
		orig := sampleOriginal(t)
		cat, _ := orig.Column("category")
		sal, _ := orig.Column("salary")
		trans := mustDataset(t, "t", map[string][]dataset.Value{
			"category": cat,
			"salary":   sal,
			"name":     repeat([]dataset.Value{"Anonymous"}, 60),
		}, "category", "salary", "name")

		even, err := New().Score(ctx, orig, trans)
		require.NoError(t, err)
		ignored, err := New(WithWeights(map[string]float64{"name": 0})).Score(ctx, orig, trans)
		require.NoError(t, err)

		require.Greater(t, even.GlobalDistance, 0.0)
		require.Equal(t, 0.0, ignored.GlobalDistance)
		require.Equal(t, even.ColumnScores, ignored.ColumnScores)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := New().Score(cctx, sampleOriginal(t), sampleOriginal(t))
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("result does not depend on worker count", func(t *testing.T) {
		orig := sampleOriginal(t)
		trans := mustDataset(t, "t", map[string][]dataset.Value{
			"category": repeat([]dataset.Value{"A", "C", "B"}, 20),
			"salary":   repeat([]dataset.Value{1.0, 2.0, 3.0}, 20),
			"name":     repeat([]dataset.Value{"p1", "p2", "p3"}, 20),
		}, "category", "salary", "name")

		serial, err := New(WithWorkers(1)).Score(ctx, orig, trans)
		require.NoError(t, err)
		parallel, err := New(WithWorkers(8)).Score(ctx, orig, trans)
		require.NoError(t, err)
		require.Equal(t, serial.GlobalScore, parallel.GlobalScore)
		require.Equal(t, serial.Columns, parallel.Columns)
		require.Equal(t, serial.ColumnScores, parallel.ColumnScores)
	})
}

type recordingObserver struct {
	mu       sync.Mutex
	columns  []string
	datasets int
}

func (r *recordingObserver) ColumnScored(cs ColumnScore, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.columns = append(r.columns, cs.Name)
}

func (r *recordingObserver) DatasetScored(ScoreResult, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets++
}

func TestScoreObserver(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	orig := sampleOriginal(t)
	_, err := New(WithObserver(obs)).Score(context.Background(), orig, orig)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"category", "salary", "name"}, obs.columns)
	require.Equal(t, 1, obs.datasets)
}

func TestQuickScore(t *testing.T) {
	t.Parallel()

	orig := sampleOriginal(t)
	res, err := QuickScore(context.Background(), orig, orig, map[string]float64{"salary": 2})
	require.NoError(t, err)
	require.Equal(t, 1.0, res.GlobalScore)
	require.Equal(t, 3, res.TotalColumns)
}

func TestScorerWeights(t *testing.T) {
	t.Parallel()

	given := map[string]float64{"salary": 2, "name": 0}
	s := New(WithWeights(given))

	given["salary"] = 9
	require.Equal(t, map[string]float64{"salary": 2, "name": 0}, s.Weights())

	got := s.Weights()
	got["category"] = 5
	require.NotContains(t, s.Weights(), "category")

	require.Empty(t, New().Weights())
}

func BenchmarkScore(b *testing.B) {
	orig := sampleOriginal(b)
	s := New()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Score(ctx, orig, orig); err != nil {
			b.Fatalf("Score failed: %v", err)
		}
	}
}
