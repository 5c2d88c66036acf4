package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToString(t *testing.T) {
	assert.Equal(t, "r1", ToString("r1"))
	assert.Equal(t, "100", ToString(100))
	assert.Equal(t, "100", ToString([]byte("100")))
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "true", ToString(true))
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 9000, ToInt(9000))
	assert.Equal(t, 9000, ToInt(int64(9000)))
	// JSON decoders hand numbers over as float64.
	assert.Equal(t, 9000, ToInt(float64(9000)))
	assert.Equal(t, 9000, ToInt("9000"))
	assert.Equal(t, 0, ToInt("not a number"))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool(1))
	assert.True(t, ToBool("1"))
	assert.True(t, ToBool("TRUE"))
	assert.False(t, ToBool(0))
	assert.False(t, ToBool("no"))
	assert.False(t, ToBool(nil))
}

func TestToStringSlice(t *testing.T) {
	assert.Nil(t, ToStringSlice(nil))
	assert.Equal(t, []string{"100", "200"}, ToStringSlice([]string{"100", "200"}))
	assert.Equal(t, []string{"100", "200"}, ToStringSlice([]any{"100", 200}))
	assert.Equal(t, []string{"100"}, ToStringSlice("100"))
}
