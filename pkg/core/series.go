package core

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Series is an ordered sequence of values aligned with a bar sequence
type Series[T constraints.Ordered] []T

// Values returns the underlying slice of values
func (s Series[T]) Values() []T {
	return s
}

// Length returns the number of values in the series
func (s Series[T]) Length() int {
	return len(s)
}

// Last returns the value at a specified position from the end
// position 0 is the last value, 1 is the second-to-last, etc.
func (s Series[T]) Last(position int) T {
	return s[len(s)-1-position]
}

// Window returns s[from:to] clamped to the series bounds
func (s Series[T]) Window(from, to int) Series[T] {
	from, to = max(from, 0), min(to, len(s))
	if from >= to {
		return Series[T]{}
	}
	return s[from:to]
}

// FiniteRange returns the min and max of the finite values in s[from:to].
// NaN warm-up values are skipped; ok is false when nothing finite remains.
func FiniteRange(s Series[float64], from, to int) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range s.Window(from, to) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi, ok = math.Min(lo, v), math.Max(hi, v), true
	}
	return lo, hi, ok
}

// NumDecPlaces returns the number of decimal places in a float64
// Useful for formatting with appropriate precision
func NumDecPlaces(v float64) int64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i > -1 {
		return int64(len(s) - i - 1)
	}
	return 0
}
