package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/config"
	se "github.com/9ao9ai9ar/stack-exchange-backup/pkg/stackexchange"
)

func TestCommandsAreRegistered(t *testing.T) {
	for _, path := range [][]string{
		{"backup"},
		{"accounts"},
		{"filter", "create"},
		{"filter", "read"},
		{"filter", "list"},
		{"auth", "login"},
		{"auth", "list"},
		{"auth", "logout"},
		{"config", "show"},
		{"config", "init"},
	} {
		cmd, rest, err := rootCmd.Find(path)
		require.NoError(t, err, "%v", path)
		assert.Empty(t, rest)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestBackupRequiresAccountID(t *testing.T) {
	flag := backupCmd.Flags().Lookup("account-id")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
}

func TestClientConfigFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API.AccessToken = "token"

	assert.Equal(t, se.Config{
		RequestKey:        config.DefaultRequestKey,
		AccessToken:       "token",
		RequestsPerSecond: 20,
		MaxConcurrent:     1,
		BaseURL:           config.DefaultBaseURL,
	}, clientConfig(cfg))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "********", maskSecret("short"))
	assert.Equal(t, "abcd...mnop", maskSecret("abcdefghijklmnop"))
}
