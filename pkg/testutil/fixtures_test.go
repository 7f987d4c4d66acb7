package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/code-payments/program-pinger/pkg/solana"
)

func TestWriteKeypairFile(t *testing.T) {
	dir := t.TempDir()
	key := GenerateSolanaKeypair(t)

	path := WriteKeypairFile(t, filepath.Join(dir, "nested"), "id.json", key)
	assert.Equal(t, filepath.Join(dir, "nested", "id.json"), path)

	loaded, err := solana.LoadKeypairFile(path)
	require.NoError(t, err)
	assert.Equal(t, key, loaded)
}

func TestWriteCLIConfig(t *testing.T) {
	dir := t.TempDir()

	path := WriteCLIConfig(t, dir, CLIConfig{
		JSONRPCURL:  "https://api.devnet.solana.com",
		KeypairPath: "/tmp/id.json",
		Commitment:  "confirmed",
	})

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(contents, &decoded))
	assert.Equal(t, "/tmp/id.json", decoded["keypair_path"])
	assert.Equal(t, "confirmed", decoded["commitment"])
	assert.NotContains(t, decoded, "websocket_url")
}
