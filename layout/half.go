package layout

import "math"

const (
	halfPosInf uint16 = 0x7c00
	halfNegInf uint16 = 0xfc00
)

// Convert a float to half precision, rounding toward zero. Values beyond the
// half range saturate to the largest finite half.
func halfTrunc(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int((bits >> 23) & 0xff)
	mant := bits & 0x7fffff

	if exp == 0xff {
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | halfPosInf
	}

	e := exp - 127 + 15
	switch {
	case e >= 0x1f:
		return sign | 0x7bff
	case e <= 0:
		if e < -10 {
			return sign
		}
		mant |= 0x800000
		return sign | uint16(mant>>uint(14-e))
	}
	return sign | uint16(e)<<10 | uint16(mant>>13)
}

// Convert a float to the largest half that does not exceed it.
func HalfFloor(f float32) uint16 {
	h := halfTrunc(f)
	if f < 0 && HalfToFloat(h) != f {
		h++
	}
	return h
}

// Convert a float to the smallest half that is not below it.
func HalfCeil(f float32) uint16 {
	h := halfTrunc(f)
	if f > 0 && HalfToFloat(h) != f {
		h++
	}
	return h
}

// Expand a half precision value.
func HalfToFloat(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch {
	case exp == 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | mant<<13)
	case exp == 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: mant * 2^-24.
		v := float32(mant) * (1.0 / (1 << 24))
		if sign != 0 {
			return -v
		}
		return v
	}
	return math.Float32frombits(sign | (exp+127-15)<<23 | mant<<13)
}
