package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/novelverse/templates"
)

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestMigrationsHaveBothDirections(t *testing.T) {
	entries, err := fs.ReadDir(templates.MigrationsFS, templates.MigrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		data, err := fs.ReadFile(templates.MigrationsFS, templates.MigrationsDir+"/"+e.Name())
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(data), "-- +goose Up"), e.Name())
		assert.True(t, strings.Contains(string(data), "-- +goose Down"), e.Name())
	}
}
