package utils

import (
	"math"

	"github.com/samber/lo"
)

// fieldMask has the low bitLen bits set.
func fieldMask(bitLen int) uint64 {
	if bitLen <= 0 {
		return 0
	}
	if bitLen >= 64 {
		return ^uint64(0)
	}
	return ^uint64(0) >> (64 - bitLen)
}

// rawRange is the range of raw values a field of bitLen bits can carry.
func rawRange(bitLen int, signed bool) (int64, int64) {
	if bitLen <= 0 {
		return 0, 0
	}
	if bitLen >= 64 {
		if signed {
			return math.MinInt64, math.MaxInt64
		}
		return 0, math.MaxInt64
	}
	if signed {
		return -int64(1) << (bitLen - 1), int64(1)<<(bitLen-1) - 1
	}
	return 0, int64(fieldMask(bitLen))
}

func clampRaw(raw int64, bitLen int, signed bool) int64 {
	low, high := rawRange(bitLen, signed)
	return clampInt(raw, low, high)
}

func clampInt(v, min, max int64) int64 { return lo.Clamp(v, min, max) }

func clamp(v, min, max float64) float64 {
	if math.IsNaN(v) {
		return min
	}
	return lo.Clamp(v, min, max)
}

// roundRaw rounds half away from zero, saturating at the int64 range.
func roundRaw(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(math.Round(f))
}
