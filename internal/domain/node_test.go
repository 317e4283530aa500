package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status Status
		color  ColorClass
		name   string
	}{
		{StatusConnected, ColorGreen, "connected"},
		{StatusUnknown, ColorOrange, "unknown"},
		{StatusDisconnected, ColorRed, "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.color, tt.status.Color())
			assert.Equal(t, tt.name, tt.status.String())
		})
	}
}

func TestNewNodeStartsUnknown(t *testing.T) {
	node := NewNode("8.8.8.8")

	assert.Equal(t, "8.8.8.8", node.Address)
	assert.Equal(t, StatusUnknown, node.Status)
	assert.True(t, node.CheckedAt.IsZero())
}

func TestParseStatus(t *testing.T) {
	t.Run("known names", func(t *testing.T) {
		for _, s := range []Status{StatusUnknown, StatusConnected, StatusDisconnected} {
			parsed, err := ParseStatus(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		}
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		parsed, err := ParseStatus("  Connected ")
		require.NoError(t, err)
		assert.Equal(t, StatusConnected, parsed)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseStatus("sorta")
		assert.Error(t, err)
	})
}

func TestStatusJSON(t *testing.T) {
	data, err := json.Marshal([]Status{StatusUnknown, StatusConnected, StatusDisconnected})
	require.NoError(t, err)
	assert.JSONEq(t, `["unknown","connected","disconnected"]`, string(data))

	var decoded []Status
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []Status{StatusUnknown, StatusConnected, StatusDisconnected}, decoded)

	_, err = json.Marshal(Status(42))
	assert.Error(t, err, "out-of-range status must not serialize")
}
