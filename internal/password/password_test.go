package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	require.True(t, Verify("s3cret-pass", hash))
	require.False(t, Verify("wrong-pass", hash))
	require.False(t, Verify("s3cret-pass", "not-a-hash"))
}

func TestHashesAreSalted(t *testing.T) {
	first, err := Hash("same-password")
	require.NoError(t, err)
	second, err := Hash("same-password")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
