package ostree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pingcap/errors"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// origPercentileRange computes the expected result over a sorted slice
// with integer arithmetic only.
func origPercentileRange(sorted []int, low, high int) []int {
	n := len(sorted)
	start := 1 + ceilDiv(low*n, 100)
	end := n - ceilDiv(high*n, 100)
	if start > end {
		return []int{}
	}
	return sorted[start-1 : end]
}

func buildIndex(vals []int, opts ...Option) *PercentileIndex[int] {
	b := NewBuilder[int]()
	for _, v := range vals {
		b.PushBack(v)
	}
	p, err := b.Build(opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func sequence(n int) []int {
	ret := make([]int, n)
	for i := range ret {
		ret[i] = i
	}
	return ret
}

func TestPercentileRange(t *testing.T) {
	Convey("Given the index {1, 0, 2}", t, func() {
		p := buildIndex([]int{1, 0, 2})
		Convey("The whole set should be selected when nothing is trimmed", func() {
			got, err := p.PercentileRange(0, 0)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []int{0, 1, 2})
		})
		Convey("A high bound of 100 should trim every rank", func() {
			got, err := p.PercentileRange(0, 100)
			So(err, ShouldBeNil)
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})
		Convey("Partial bounds should follow the rank formulas", func() {
			got, err := p.PercentileRange(0, 34)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []int{0})
			got, err = p.PercentileRange(10, 10)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []int{1})
		})
	})

	Convey("Given 50 shuffled integers 0..49", t, func() {
		p := buildIndex(rand.Perm(50))
		So(p.Len(), ShouldEqual, 50)
		Convey("PercentileRange(15, 66) should return ranks 9 through 17", func() {
			got, err := p.PercentileRange(15, 66)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []int{8, 9, 10, 11, 12, 13, 14, 15, 16})
		})
		Convey("The index should be unchanged by queries", func() {
			_, err := p.PercentileRange(0, 0)
			So(err, ShouldBeNil)
			So(p.Values(), ShouldResemble, sequence(50))
			So(checkInvariants(p.Tree()), ShouldBeNil)
		})
	})

	Convey("Given 29 values", t, func() {
		p := buildIndex(rand.Perm(29))
		Convey("A bound of 100 should trim exactly n ranks", func() {
			got, err := p.PercentileRange(0, 100)
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
			got, err = p.PercentileRange(0, 0)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, sequence(29))
		})
	})

	Convey("PercentileRange should agree with the sorted slice", t, func() {
		for _, n := range []int{1, 2, 3, 7, 29, 50, 58, 100, 257} {
			p := buildIndex(rand.Perm(n))
			sorted := sequence(n)
			for low := 0; low <= 100; low += 7 {
				for high := low; high <= 100; high += 9 {
					got, err := p.PercentileRange(float64(low), float64(high))
					So(err, ShouldBeNil)
					So(got, ShouldResemble, origPercentileRange(sorted, low, high))
				}
			}
		}
	})

	Convey("PercentileRange should reject bad input", t, func() {
		p := NewPercentileIndex[int]()
		_, err := p.PercentileRange(0, 100)
		So(IsEmptyIndex(err), ShouldBeTrue)

		So(p.Add(1), ShouldBeNil)
		for _, r := range [][2]float64{{-1, 10}, {0, 101}, {60, 40}, {math.NaN(), 10}, {0, math.Inf(1)}} {
			_, err = p.PercentileRange(r[0], r[1])
			So(errors.Cause(err) == ErrInvalidPercentile, ShouldBeTrue)
		}
	})
}

func TestPercentileIndexUpdates(t *testing.T) {
	Convey("Given an index of 0..9", t, func() {
		p := buildIndex(rand.Perm(10))

		Convey("Adding a present value should fail", func() {
			So(IsDuplicateKey(p.Add(3)), ShouldBeTrue)
			So(p.Len(), ShouldEqual, 10)
		})
		Convey("Removing an absent value should fail", func() {
			So(IsKeyNotFound(p.Remove(10)), ShouldBeTrue)
			So(p.Len(), ShouldEqual, 10)
		})
		Convey("When values are removed", func() {
			So(p.Remove(0), ShouldBeNil)
			So(p.Remove(5), ShouldBeNil)
			So(p.Contains(5), ShouldBeFalse)
			Convey("Queries should see the remaining values", func() {
				got, err := p.PercentileRange(0, 0)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []int{1, 2, 3, 4, 6, 7, 8, 9})
				got, err = p.PercentileRange(25, 25)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []int{3, 4, 6, 7})
			})
		})
		Convey("When every value is removed", func() {
			for i := 0; i < 10; i++ {
				So(p.Remove(i), ShouldBeNil)
			}
			_, err := p.PercentileRange(0, 0)
			So(IsEmptyIndex(err), ShouldBeTrue)
		})
	})
}

func TestPercentileIndexZeroValue(t *testing.T) {
	Convey("Given a zero PercentileIndex", t, func() {
		var p PercentileIndex[int]
		So(p.Len(), ShouldEqual, 0)
		So(p.Contains(1), ShouldBeFalse)
		So(p.Values(), ShouldBeEmpty)
		_, err := p.PercentileRange(0, 0)
		So(IsEmptyIndex(err), ShouldBeTrue)
		So(IsKeyNotFound(p.Remove(1)), ShouldBeTrue)

		Convey("Values added should be queryable", func() {
			for _, v := range []int{1, 0, 2} {
				So(p.Add(v), ShouldBeNil)
			}
			got, err := p.PercentileRange(0, 0)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []int{0, 1, 2})
			So(checkInvariants(p.Tree()), ShouldBeNil)
		})
	})
}

func TestPercentSteps(t *testing.T) {
	Convey("percentSteps should be exact for integer percentages", t, func() {
		So(percentSteps(100, 29), ShouldEqual, 29)
		So(percentSteps(50, 58), ShouldEqual, 29)
		So(percentSteps(15, 50), ShouldEqual, 8)
		So(percentSteps(0, 7), ShouldEqual, 0)
	})
	Convey("Fractional percentages may round up past an integer", t, func() {
		So(percentSteps(16.1, 1000), ShouldEqual, 162)
	})
}

func TestPercentile(t *testing.T) {
	Convey("Given 50 shuffled integers 0..49", t, func() {
		p := buildIndex(rand.Perm(50))
		for _, c := range []struct {
			pct  float64
			want int
		}{
			{0, 0}, {1, 0}, {15, 7}, {50, 24}, {99, 49}, {100, 49},
		} {
			got, err := p.Percentile(c.pct)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, c.want)
		}
		_, err := p.Percentile(100.5)
		So(errors.Cause(err) == ErrInvalidPercentile, ShouldBeTrue)
	})
	Convey("Percentile on an empty index should fail", t, func() {
		_, err := NewPercentileIndex[float64]().Percentile(50)
		So(IsEmptyIndex(err), ShouldBeTrue)
	})
}

func TestBuilder(t *testing.T) {
	Convey("When a builder is empty", t, func() {
		p, err := NewBuilder[string]().Build()
		So(err, ShouldBeNil)
		So(p.Len(), ShouldEqual, 0)
	})
	Convey("When a builder has a repeated value", t, func() {
		b := NewBuilder[string]()
		for _, s := range []string{"b", "a", "c", "a"} {
			b.PushBack(s)
		}
		p, err := b.Build()
		So(IsDuplicateKey(err), ShouldBeTrue)
		So(p, ShouldBeNil)
	})
}

func TestPercentileLogging(t *testing.T) {
	Convey("Queries should log the computed rank window", t, func() {
		core, logs := observer.New(zapcore.DebugLevel)
		p := buildIndex(rand.Perm(50), WithLogger(zap.New(core)))
		So(logs.FilterMessage("percentile index built").Len(), ShouldEqual, 1)

		_, err := p.PercentileRange(15, 66)
		So(err, ShouldBeNil)
		entries := logs.FilterMessage("percentile range").All()
		So(len(entries), ShouldEqual, 1)
		fields := entries[0].ContextMap()
		So(fields["start-rank"], ShouldEqual, int64(9))
		So(fields["end-rank"], ShouldEqual, int64(17))
		So(fields["num"], ShouldEqual, int64(50))
	})
}

// -----------------------------------------------------------------------------
// Benchmarks
//

func BenchmarkIndex_PercentileRange(b *testing.B) {
	p := buildIndex(rand.Perm(N))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		low := rand.Float64() * 100
		_, _ = p.PercentileRange(low, math.Max(low, 99))
	}
}
