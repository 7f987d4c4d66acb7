package ping

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-pinger/pkg/solana"
	"github.com/code-payments/program-pinger/pkg/testutil"
)

func TestLoadIdentity(t *testing.T) {
	t.Cleanup(testutil.DisableLogging())

	dir := t.TempDir()
	key := testutil.GenerateSolanaKeypair(t)

	keypairPath := testutil.WriteKeypairFile(t, dir, "id.json", key)
	configPath := testutil.WriteCLIConfig(t, dir, testutil.CLIConfig{
		JSONRPCURL:    "https://api.devnet.solana.com",
		KeypairPath:   keypairPath,
		AddressLabels: map[string]string{"11111111111111111111111111111111": "System Program"},
		Commitment:    "confirmed",
	})

	identity, err := LoadIdentity(configPath)
	require.NoError(t, err)

	assert.Equal(t, keypairPath, identity.KeypairPath)
	assert.Equal(t, key, identity.Key)
	assert.EqualValues(t, key.Public().(ed25519.PublicKey), identity.PublicKey())
}

func TestLoadIdentity_HomeDirectory(t *testing.T) {
	t.Cleanup(testutil.DisableLogging())

	home := t.TempDir()
	t.Setenv("HOME", home)

	key := testutil.GenerateSolanaKeypair(t)
	testutil.WriteKeypairFile(t, filepath.Join(home, ".config", "solana"), "id.json", key)
	testutil.WriteCLIConfig(t, filepath.Join(home, ".config", "solana", "cli"), testutil.CLIConfig{
		KeypairPath: "~/.config/solana/id.json",
	})

	identity, err := LoadIdentity(defaultCLIConfigPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".config", "solana", "id.json"), identity.KeypairPath)
	assert.Equal(t, key, identity.Key)
}

func TestLoadIdentity_Errors(t *testing.T) {
	t.Cleanup(testutil.DisableLogging())

	dir := t.TempDir()

	_, err := LoadIdentity(filepath.Join(dir, "missing.yml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCLIConfigNotFound))
	assert.Equal(t, KindConfiguration, KindOf(err))
	assert.Equal(t, StageIdentity, StageOf(err))

	noKeypair := testutil.WriteCLIConfig(t, filepath.Join(dir, "no-keypair"), testutil.CLIConfig{
		JSONRPCURL: "https://api.devnet.solana.com",
	})
	_, err = LoadIdentity(noKeypair)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingKeypairPath))
	assert.Equal(t, KindConfiguration, KindOf(err))

	missingKeypair := testutil.WriteCLIConfig(t, filepath.Join(dir, "missing-keypair"), testutil.CLIConfig{
		KeypairPath: filepath.Join(dir, "nope.json"),
	})
	_, err = LoadIdentity(missingKeypair)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, KindConfiguration, KindOf(err))

	badKeypairPath := testutil.WriteFile(t, dir, "bad.json", []byte("[1, 2, 3]"))
	badKeypair := testutil.WriteCLIConfig(t, filepath.Join(dir, "bad-keypair"), testutil.CLIConfig{
		KeypairPath: badKeypairPath,
	})
	_, err = LoadIdentity(badKeypair)
	require.Error(t, err)
	assert.True(t, errors.Is(err, solana.ErrInvalidKeypair))
	assert.Equal(t, KindConfiguration, KindOf(err))

	malformed := testutil.WriteFile(t, filepath.Join(dir, "malformed"), "config.yml", []byte("keypair_path: [unterminated"))
	_, err = LoadIdentity(malformed)
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
}
