package main

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// paramPattern matches a single parameter value: numbers, pi expressions, or combinations.
// Examples: "1.5707", "pi", "pi/2", "3*pi/4", "-pi", "-2*pi/3", "3.14e-2"
const paramPattern = `-?(?:\d*\.?\d*\*?pi(?:/\d+\.?\d*)?|\d+\.?\d*(?:[eE][+\-]?\d+)?)`

// piExprRegex matches expressions like: pi, 2pi, 2*pi, pi/2, 3pi/4, 3*pi/4, -pi, -pi/2, -3*pi/4
var piExprRegex = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// parseParamExpr parses a single parameter expression, supporting plain numbers and pi expressions.
// Returns the parsed float64 value and true on success, or 0 and false on failure.
func parseParamExpr(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val, true
	}

	s = strings.ToLower(s)
	matches := piExprRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, false
	}

	coeff := 1.0
	if matches[2] != "" {
		var err error
		coeff, err = strconv.ParseFloat(matches[2], 64)
		if err != nil {
			return 0, false
		}
	}

	result := coeff * math.Pi
	if matches[3] != "" {
		denom, err := strconv.ParseFloat(matches[3], 64)
		if err != nil || denom == 0 {
			return 0, false
		}
		result /= denom
	}

	if matches[1] == "-" {
		result = -result
	}
	return result, true
}

// piDenominators are the denominators formatParam tries, in order.
// Fourier-adder angles are always k*pi/2^m, with m below MaxProblemQubits.
var piDenominators = func() []int {
	ds := []int{1, 2, 3, 4, 6}
	for d := 8; d <= 1<<MaxProblemQubits; d <<= 1 {
		ds = append(ds, d)
	}
	return ds
}()

// formatParam formats an angle, using "k*pi/d" notation when it is a
// small rational multiple of pi.
func formatParam(val float64) string {
	if val == 0 {
		return "0"
	}
	ratio := val / math.Pi
	for _, d := range piDenominators {
		n := math.Round(ratio * float64(d))
		if n == 0 || math.Abs(ratio*float64(d)-n) > 1e-9 {
			continue
		}
		sign := ""
		if n < 0 {
			sign = "-"
			n = -n
		}
		var s string
		if n == 1 {
			s = "pi"
		} else {
			s = fmt.Sprintf("%d*pi", int64(n))
		}
		if d > 1 {
			s += fmt.Sprintf("/%d", d)
		}
		return sign + s
	}

	return strconv.FormatFloat(val, 'g', -1, 64)
}

// parseIntList parses a comma or whitespace separated list of
// non-negative integers such as "1, 2, 3".
func parseIntList(input string) ([]int, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '[' || r == ']'
	})
	if len(fields) == 0 {
		return nil, errors.New("empty value list")
	}
	values := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.Wrapf(err, "parse value %q", f)
		}
		if v < 0 {
			return nil, errors.Errorf("negative value %d", v)
		}
		values = append(values, v)
	}
	return values, nil
}
