package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFS_HasUpAndDown(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for _, n := range names {
		b, err := fs.ReadFile(FS, n)
		require.NoError(t, err)
		require.Contains(t, string(b), "-- +goose Up", n)
		require.Contains(t, string(b), "-- +goose Down", n)
		require.True(t, strings.HasPrefix(n, "0000"), n)
	}
}
