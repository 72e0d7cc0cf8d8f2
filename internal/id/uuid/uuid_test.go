package uuid

import (
	"testing"

	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	t.Parallel()

	gen := NewUUIDGenerator()

	first, err := gen.NewID()
	require.NoError(t, err)

	parsed, err := guuid.Parse(first)
	require.NoError(t, err)
	require.Equal(t, guuid.Version(7), parsed.Version())

	second, err := gen.NewID()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
