package util

import "time"

func MaxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func CopySlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// Seed returns seed, or a clock-derived seed when it is zero.
func Seed(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	return uint64(time.Now().UnixNano())
}
