package codec

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func nan() float64 { return math.NaN() }

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{math.Copysign(0, -1), "-0.0"},
		{1.5, "1.5"},
		{4100, "4100.0"},
		{-2, "-2.0"},
		{33.776611328125, "33.776611328125"},
		{33.784217834472656, "33.784217834472656"},
		{179.80657958984375, "179.80657958984375"},
		{0.1, "0.1"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{1e15, "1000000000000000.0"},
		{1e16, "1e+16"},
		{1.5e300, "1.5e+300"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatFloat(tt.in)
			assert.Equal(t, tt.want, got)
			if !math.IsNaN(tt.in) && !math.IsInf(tt.in, 0) {
				back, err := strconv.ParseFloat(got, 64)
				assert.NoError(t, err)
				assert.Equal(t, tt.in, back, "value must survive a parse")
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"int", 34, "34"},
		{"int64", int64(-7), "-7"},
		{"uint8", uint8(200), "200"},
		{"float", 50000.5, "50000.5"},
		{"integral float", 50000.0, "50000.0"},
		{"float32", float32(0.1), "0.1"},
		{"json integer", json.Number("34"), "34"},
		{"json big integer", json.Number("123456789012345678901234567890"), "123456789012345678901234567890"},
		{"json decimal", json.Number("50000.50"), "50000.5"},
		{"json exponent", json.Number("1e5"), "100000.0"},
		{"string", "blue", "blue"},
		{"bool", true, "true"},
		{"nil", nil, ""},
		{"stringer", 1500 * time.Millisecond, "1.5s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}
