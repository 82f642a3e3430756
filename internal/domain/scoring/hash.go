package scoring

import "unicode/utf16"

// hashModulus bounds StringHash so its output normalizes cleanly into [0,1).
const hashModulus = 1_000_000

// StringHash is the 31-multiplier string hash over UTF-16 code units with
// 32-bit wraparound. It returns abs(hash) mod 1_000_000.
func StringHash(s string) int {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % hashModulus)
}

// Unit maps s onto [0,1) through StringHash.
func Unit(s string) float64 {
	return float64(StringHash(s)) / hashModulus
}
