package tools

import (
	"testing"
	"time"

	"github.com/yaotthaha/ipcheck/lib/types"

	"github.com/stretchr/testify/require"
)

func TestMapStructureDecoder(t *testing.T) {
	type nested struct {
		Name string `config:"name"`
	}
	type target struct {
		Path     types.Listable[string] `config:"path"`
		Country  types.Listable[string] `config:"country"`
		Interval types.TimeDuration     `config:"interval"`
		Nested   nested                 `config:"nested"`
	}

	var got target
	err := NewMapStructureDecoderWithResult(&got).Decode(map[string]any{
		"path":     "/etc/ipcheck/list.txt",
		"country":  []any{"CN", "RU"},
		"interval": "90s",
		"nested":   map[string]any{"name": "x"},
	})
	require.NoError(t, err)
	require.Equal(t, types.Listable[string]{"/etc/ipcheck/list.txt"}, got.Path)
	require.Equal(t, types.Listable[string]{"CN", "RU"}, got.Country)
	require.Equal(t, types.TimeDuration(90*time.Second), got.Interval)
	require.Equal(t, "x", got.Nested.Name)
}

func TestMapStructureDecoderBadDuration(t *testing.T) {
	var got struct {
		Interval types.TimeDuration `config:"interval"`
	}
	err := NewMapStructureDecoderWithResult(&got).Decode(map[string]any{
		"interval": "soon",
	})
	require.Error(t, err)
}
