package distance

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peekknuf/anonscore/internal/dataset"
)

func repeat(pattern []string, times int) []dataset.Value {
	out := make([]dataset.Value, 0, len(pattern)*times)
	for i := 0; i < times; i++ {
		for _, p := range pattern {
			out = append(out, p)
		}
	}
	return out
}

func values[T any](xs ...T) []dataset.Value {
	out := make([]dataset.Value, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func TestAssociation(t *testing.T) {
	t.Parallel()

	abc := repeat([]string{"A", "B", "C"}, 10)

	t.Run("identical columns have zero distance", func(t *testing.T) {
		t.Parallel()
		res := Association(abc, abc)
		require.False(t, res.IsDegenerate())
		require.InDelta(t, 0, res.Distance, 1e-9)
	})

	t.Run("two-by-two tables apply continuity correction", func(t *testing.T) {
		t.Parallel()
		xy := repeat([]string{"X", "Y"}, 30)
		res := Association(xy, xy)
		require.False(t, res.IsDegenerate())
		require.Greater(t, res.Distance, 0.0)
		require.Less(t, res.Distance, 0.05)
	})

	t.Run("one-to-one relabeling keeps full association", func(t *testing.T) {
		t.Parallel()
		xyz := repeat([]string{"X", "Y", "Z"}, 10)
		res := Association(abc, xyz)
		require.InDelta(t, 0, res.Distance, 1e-9)
	})

	t.Run("independent pairing is fully distant", func(t *testing.T) {
		t.Parallel()
		x := repeat([]string{"A", "B", "C"}, 9)
		y := repeat([]string{"X", "X", "X", "Y", "Y", "Y", "Z", "Z", "Z"}, 3)
		res := Association(x, y)
		require.False(t, res.IsDegenerate())
		require.InDelta(t, 1, res.Distance, 1e-9)
	})

	t.Run("constant column is degenerate", func(t *testing.T) {
		t.Parallel()
		res := Association(abc, repeat([]string{"Anonymous"}, 30))
		require.Equal(t, ReasonConstant, res.Reason)
	})

	t.Run("all missing is degenerate", func(t *testing.T) {
		t.Parallel()
		res := Association(abc, make([]dataset.Value, 30))
		require.Equal(t, ReasonEmpty, res.Reason)
	})

	t.Run("length mismatch truncates to the shorter side", func(t *testing.T) {
		t.Parallel()
		res := Association(abc, abc[:12])
		require.False(t, res.IsDegenerate())
		require.InDelta(t, 0, res.Distance, 1e-9)
	})
}

func TestSetOverlap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		x, y []dataset.Value
		want float64
	}{
		{"identical", values("A", "B", "C"), values("C", "B", "A"), 0},
		{"both empty", values[any](nil, nil), values[any](nil), 0},
		{"disjoint", values("A", "B"), values("X", "Y"), 1},
		{"partial", values("A", "B"), values("B", "C"), 1 - 1.0/3},
		{"one side empty", values("A"), values[any](nil), 1},
		{"numeric kinds compare by value", values(1, 2), values(1.0, 2.0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := SetOverlap(tt.x, tt.y)
			require.False(t, res.IsDegenerate())
			require.InDelta(t, tt.want, res.Distance, 1e-9)
		})
	}
}

func TestWasserstein(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 5, Wasserstein([]float64{0, 1, 3}, []float64{5, 6, 8}), 1e-9)
	require.InDelta(t, 1, Wasserstein([]float64{0, 10}, []float64{1, 11}), 1e-9)
	require.InDelta(t, 0, Wasserstein([]float64{3, 1, 2}, []float64{1, 2, 3}), 1e-9)
	// different sample sizes: uniform on {0,1} against point mass at 0
	require.InDelta(t, 0.5, Wasserstein([]float64{0, 1}, []float64{0, 0, 0}), 1e-9)
}

func TestDistributionShift(t *testing.T) {
	t.Parallel()

	t.Run("normalized by original range", func(t *testing.T) {
		res := DistributionShift(values(0, 10), values(1, 11))
		require.InDelta(t, 0.1, res.Distance, 1e-9)
	})

	t.Run("capped at one", func(t *testing.T) {
		res := DistributionShift(values(0, 1, 3), values(5, 6, 8))
		require.Equal(t, 1.0, res.Distance)
	})

	t.Run("zero range", func(t *testing.T) {
		require.Equal(t, 0.0, DistributionShift(values(5, 5, 5), values(5, 5, 5)).Distance)
		require.Equal(t, 1.0, DistributionShift(values(5, 5, 5), values(5, 6)).Distance)
	})

	t.Run("numeric strings coerce", func(t *testing.T) {
		res := DistributionShift(values("0", "10"), values("1", "11"))
		require.InDelta(t, 0.1, res.Distance, 1e-9)
	})

	t.Run("non numeric transformed values", func(t *testing.T) {
		res := DistributionShift(values(1, 2, 3), values("a1b2", "c3d4", "e5f6"))
		require.Equal(t, ReasonNotNumeric, res.Reason)
	})

	t.Run("empty", func(t *testing.T) {
		res := DistributionShift(values(1, 2, 3), values[any](nil, nil, nil))
		require.Equal(t, ReasonEmpty, res.Reason)
	})
}

func TestDistributionShape(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 0.5, DistributionShape(values(1, 2, 3, 4), values(3, 4, 5, 6)).Distance, 1e-9)
	require.InDelta(t, 0, DistributionShape(values(4, 3, 2, 1), values(1, 2, 3, 4)).Distance, 1e-9)
	require.InDelta(t, 1, DistributionShape(values(1, 2), values(10, 20)).Distance, 1e-9)
	require.Equal(t, ReasonNotNumeric, DistributionShape(values(1, 2), values[any]("x", 2)).Reason)
}

func TestCentralTendency(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 0.5, CentralTendency(values(1, 2, 3), values(2.5, 2.5, 2.5)).Distance, 1e-9)
	require.Equal(t, 1.0, CentralTendency(values(1, 2, 3), values(100, 200)).Distance)
	require.Equal(t, 0.0, CentralTendency(values(7, 7), values(7)).Distance)
	require.Equal(t, 1.0, CentralTendency(values(7, 7), values(8)).Distance)
	require.Equal(t, 1.0, CentralTendency(values(7), values(8)).Distance)
}

func TestRatio(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 0.75, Ratio("abcd", "bcde"), 1e-9)
	require.Equal(t, 1.0, Ratio("same", "same"))
	require.Equal(t, 1.0, Ratio("", ""))
	require.Equal(t, 0.0, Ratio("abc", "xyz"))
	require.InDelta(t, 4.0/7, Ratio("héllo", "hé"), 1e-9)
}

func TestTextSimilarity(t *testing.T) {
	t.Parallel()

	names := make([]dataset.Value, 50)
	anon := make([]dataset.Value, 50)
	for i := range names {
		names[i] = fmt.Sprintf("Person_%d@company.com", i)
		anon[i] = fmt.Sprintf("Anonymous_%d", i)
	}

	t.Run("identical text", func(t *testing.T) {
		require.Equal(t, 0.0, TextSimilarity(names, names, DefaultTextSample))
	})

	t.Run("replaced text is distant", func(t *testing.T) {
		require.Greater(t, TextSimilarity(names, anon, DefaultTextSample), 0.6)
	})

	t.Run("nulled column is fully distant", func(t *testing.T) {
		seq := SequenceSimilarity(names, make([]dataset.Value, 50), DefaultTextSample)
		require.Equal(t, ReasonEmpty, seq.Reason)
		require.Equal(t, 1.0, TextSimilarity(names, make([]dataset.Value, 50), DefaultTextSample))
	})

	t.Run("empty original has no replaced values", func(t *testing.T) {
		require.Equal(t, 0.0, TextOverlap(make([]dataset.Value, 3), values("a", "b", "c")).Distance)
	})

	t.Run("only the head of the column is compared", func(t *testing.T) {
		x := make([]dataset.Value, 150)
		y := make([]dataset.Value, 150)
		for i := range x {
			x[i] = fmt.Sprintf("value-%d", i)
			y[i] = x[i]
			if i >= 100 {
				y[i] = "zzzzzzzzzz"
			}
		}
		require.Equal(t, 0.0, SequenceSimilarity(x, y, 100).Distance)
		require.Greater(t, SequenceSimilarity(x, y, 150).Distance, 0.0)
	})
}

func TestMetricsStayInUnitInterval(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 7))
	pick := func(n int, gen func() dataset.Value) []dataset.Value {
		out := make([]dataset.Value, n)
		for i := range out {
			if rng.IntN(10) == 0 {
				continue
			}
			out[i] = gen()
		}
		return out
	}
	generators := map[string]func() dataset.Value{
		"categorical": func() dataset.Value { return string(rune('A' + rng.IntN(4))) },
		"numerical":   func() dataset.Value { return rng.NormFloat64()*rng.Float64()*100 + 5 },
		"text":        func() dataset.Value { return fmt.Sprintf("user-%d", rng.IntN(1000)) },
		"constant":    func() dataset.Value { return "same" },
	}

	check := func(t *testing.T, name string, r Result) {
		t.Helper()
		if r.IsDegenerate() {
			require.Zero(t, r.Distance, name)
			return
		}
		require.GreaterOrEqual(t, r.Distance, 0.0, name)
		require.LessOrEqual(t, r.Distance, 1.0, name)
	}

	for i := 0; i < 200; i++ {
		for xName, xGen := range generators {
			for yName, yGen := range generators {
				x := pick(rng.IntN(40), xGen)
				y := pick(rng.IntN(40), yGen)
				label := fmt.Sprintf("%s vs %s", xName, yName)
				check(t, label+" association", Association(x, y))
				check(t, label+" set overlap", SetOverlap(x, y))
				check(t, label+" shift", DistributionShift(x, y))
				check(t, label+" shape", DistributionShape(x, y))
				check(t, label+" central", CentralTendency(x, y))
				check(t, label+" text overlap", TextOverlap(x, y))
				check(t, label+" sequence", SequenceSimilarity(x, y, DefaultTextSample))
				ts := TextSimilarity(x, y, DefaultTextSample)
				require.GreaterOrEqual(t, ts, 0.0, label)
				require.LessOrEqual(t, ts, 1.0, label)
			}
		}
	}
}

func TestNumericalSmallNoise(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	x := make([]dataset.Value, 200)
	y := make([]dataset.Value, 200)
	for i := range x {
		v := 100 + 15*rng.NormFloat64()
		x[i] = v
		y[i] = v + 0.1*rng.NormFloat64()
	}

	require.Less(t, DistributionShift(x, y).Distance, 0.15)
	require.Less(t, DistributionShape(x, y).Distance, 0.15)
	require.Less(t, CentralTendency(x, y).Distance, 0.15)
}

func TestDistributionShiftGrowsWithNoise(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 4))
	const trials = 20
	levels := []float64{0.1, 1, 5, 20}

	prev := -1.0
	for _, sigma := range levels {
		var total float64
		for trial := 0; trial < trials; trial++ {
			x := make([]dataset.Value, 200)
			y := make([]dataset.Value, 200)
			for i := range x {
				v := 100 + 15*rng.NormFloat64()
				x[i] = v
				y[i] = v + sigma*rng.NormFloat64()
			}
			total += DistributionShift(x, y).Distance
		}
		mean := total / trials
		require.GreaterOrEqual(t, mean, prev, "noise sigma %v", sigma)
		prev = mean
	}
}
