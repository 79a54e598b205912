package groups

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseValue(t *testing.T) {
	assert.Equal(t, Empty(), ParseValue(""))
	assert.Equal(t, Empty(), ParseValue("   "))
	assert.Equal(t, Number(0), ParseValue("0"))
	assert.Equal(t, Number(12.5), ParseValue(" 12.5 "))
	assert.Equal(t, Text("ИТОГО"), ParseValue("ИТОГО"))
}

func TestParseValueNonFiniteIsText(t *testing.T) {
	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-inf", "Infinity"} {
		v := ParseValue(raw)
		assert.Equal(t, Text(raw), v, raw)
		assert.True(t, v == ParseValue(raw), "%s must equal itself", raw)
	}

	data, err := json.Marshal([]Value{ParseValue("NaN"), ParseValue("Inf")})
	require.NoError(t, err)
	assert.JSONEq(t, `["NaN", "Inf"]`, string(data))
}

func TestValueIdentity(t *testing.T) {
	assert.NotEqual(t, Empty(), Number(0), "empty and zero must differ")
	assert.True(t, Number(0) == Number(0))
	assert.False(t, Text("1") == Number(1))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "", Empty().String())
	assert.Equal(t, "5", Number(5).String())
	assert.Equal(t, "2.25", Number(2.25).String())
	assert.Equal(t, "abc", Text("abc").String())
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Value{Empty(), Number(3), Text("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `[null, 3, "x"]`, string(data))
}

func TestValueYAML(t *testing.T) {
	data, err := yaml.Marshal(Row{Cells: []Value{Number(3), Text("x")}})
	require.NoError(t, err)
	assert.Contains(t, string(data), "- 3")
	assert.Contains(t, string(data), "- x")
}
