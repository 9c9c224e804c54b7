// mathfuncs.go
package formulize

import "math"

// Standard math surface available inside every expression. Kept as plain
// funcs/values so expr-lang can call them without registration ceremony.
var mathFuncs = map[string]interface{}{
	"pi":    math.Pi,
	"e":     math.E,
	"sqrt":  math.Sqrt,
	"cbrt":  math.Cbrt,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"atan2": math.Atan2,
	"exp":   math.Exp,
	"ln":    math.Log,
	"log10": math.Log10,
	"pow":   math.Pow,
	"hypot": math.Hypot,
	"sign": func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	},
}
