package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersion(t *testing.T) {
	orig := rootCmd.Version
	t.Cleanup(func() { SetVersion(orig) })

	SetVersion("1.2.3 (commit: abc, built: today)")
	assert.Equal(t, "1.2.3 (commit: abc, built: today)", rootCmd.Version)
}

func TestSubcommandsRegistered(t *testing.T) {
	for _, name := range []string{"serve", "mcp", "sections", "publish", "seed", "sources"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}

func TestPublishRequiresPageID(t *testing.T) {
	require.Error(t, publishCmd.Args(publishCmd, nil))
	require.NoError(t, publishCmd.Args(publishCmd, []string{"page-1"}))
}

func TestServeFlags(t *testing.T) {
	assert.NotNil(t, serveCmd.Flags().Lookup("addr"))
	assert.NotNil(t, serveCmd.Flags().Lookup("watch"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}
