package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	type payload struct {
		K       int         `json:"k"`
		Labels  []int       `json:"labels"`
		Centers [][]float64 `json:"centers"`
	}
	in := payload{K: 3, Labels: []int{0, 1, 2, 0}, Centers: [][]float64{{0, 0.5}, {1, 2}, {3, 4}}}

	std := MustMarshal(JSON{}, in)
	fast := MustMarshal(GoJSON{}, in)
	assert.JSONEq(t, string(std), string(fast))

	var out payload
	require.NoError(t, JSON{}.Unmarshal(fast, &out))
	assert.Equal(t, in, out)
}
