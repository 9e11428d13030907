// Compile-time estimation. The formula is an empirical proxy for
// relative compile cost, not a measured time: line count scaled by
// lexical complexity and include fan-out.
package cost

// BaseRatePerLine is the empirical seconds-per-line constant.
const BaseRatePerLine = 0.001

// Estimate returns the estimated compile time in seconds for one
// translation unit:
//
//	lines * base * (1 + complexity*0.01) * (1 + fanOut*0.1)
//
// Zero lines estimates zero; the result is monotonically non-decreasing
// in each input.
func Estimate(lines, complexity, fanOut int) float64 {
	if lines <= 0 {
		return 0
	}
	return float64(lines) * BaseRatePerLine *
		(1 + float64(complexity)*0.01) *
		(1 + float64(fanOut)*0.1)
}
