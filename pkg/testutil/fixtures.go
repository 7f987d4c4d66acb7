package testutil

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/code-payments/program-pinger/pkg/solana"
)

// CLIConfig mirrors the fields of the Solana CLI's config.yml.
type CLIConfig struct {
	JSONRPCURL    string            `yaml:"json_rpc_url,omitempty"`
	WebsocketURL  string            `yaml:"websocket_url,omitempty"`
	KeypairPath   string            `yaml:"keypair_path,omitempty"`
	AddressLabels map[string]string `yaml:"address_labels,omitempty"`
	Commitment    string            `yaml:"commitment,omitempty"`
}

// WriteKeypairFile writes key to dir/name in the solana-keygen format and
// returns the path.
func WriteKeypairFile(t *testing.T, dir, name string, key ed25519.PrivateKey) string {
	encoded, err := solana.MarshalKeypair(key)
	require.NoError(t, err)

	return WriteFile(t, dir, name, encoded)
}

// WriteCLIConfig writes config as YAML to dir/config.yml and returns the path.
func WriteCLIConfig(t *testing.T, dir string, config CLIConfig) string {
	encoded, err := yaml.Marshal(config)
	require.NoError(t, err)

	return WriteFile(t, dir, "config.yml", encoded)
}

// WriteFile writes contents to dir/name, creating dir if necessary.
func WriteFile(t *testing.T, dir, name string, contents []byte) string {
	require.NoError(t, os.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, contents, 0o600))
	return path
}
