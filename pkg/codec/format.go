package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders v as the shortest literal that parses back to the same
// float64. Integral values keep a ".0" suffix and very small or very large
// magnitudes switch to exponent form, matching the text produced by the
// reference exporters (e.g. "4100.0", "33.776611328125", "1e-05").
func FormatFloat(v float64) string {
	return formatFloat(v, 64)
}

func formatFloat(v float64, bitSize int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(v, 'e', -1, bitSize)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if v != 0 && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(v, 'f', -1, bitSize)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// FormatValue renders a feature value for a run command. Integers are copied
// verbatim, floats go through FormatFloat and anything else uses its text form.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return formatNumber(x)
	case float64:
		return FormatFloat(x)
	case float32:
		return formatFloat(float64(x), 32)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// formatNumber keeps integer literals as written and normalises the rest.
func formatNumber(n json.Number) string {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	f, err := n.Float64()
	if err != nil {
		return s
	}
	return FormatFloat(f)
}
