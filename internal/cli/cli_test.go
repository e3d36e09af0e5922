package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "storefront", root.Use)

	for _, path := range [][]string{
		{"start"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"seed"},
		{"worker", "run"},
		{"user", "create"},
		{"token", "issue"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name(), path)
	}

	cmd, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, "start", cmd.Name())
}

func TestUserCreateRequiresFlags(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"user", "create", "--email", "a@example.com"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}
