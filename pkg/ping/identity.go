package ping

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/code-payments/program-pinger/pkg/solana"
)

const keypairPathKey = "keypair_path"

var (
	ErrCLIConfigNotFound  = errors.New("solana cli config not found")
	ErrMissingKeypairPath = errors.New("solana cli config has no keypair_path")
)

// Identity is the local signer. It pays for and signs every transaction.
type Identity struct {
	KeypairPath string
	Key         ed25519.PrivateKey
}

func (i *Identity) PublicKey() ed25519.PublicKey {
	return i.Key.Public().(ed25519.PublicKey)
}

// LoadIdentity reads the Solana CLI config at cliConfigPath and loads the
// keypair its keypair_path points to. A leading ~ in either path is expanded
// to the user's home directory.
func LoadIdentity(cliConfigPath string) (*Identity, error) {
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":   "ping/identity",
		"method": "LoadIdentity",
	})

	configPath, err := expandHome(cliConfigPath)
	if err != nil {
		return nil, configurationError(StageIdentity, err)
	}

	// viper.ReadInConfig doesn't return ConfigFileNotFoundError for an
	// explicitly set file, so we check for it ourselves.
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, configurationError(StageIdentity, errors.Wrap(ErrCLIConfigNotFound, configPath))
	} else if err != nil {
		return nil, configurationError(StageIdentity, errors.Wrapf(err, "failed to check %s", configPath))
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, configurationError(StageIdentity, errors.Wrapf(err, "failed to read %s", configPath))
	}

	keypairPath := strings.TrimSpace(v.GetString(keypairPathKey))
	if len(keypairPath) == 0 {
		return nil, configurationError(StageIdentity, errors.Wrap(ErrMissingKeypairPath, configPath))
	}

	keypairPath, err = expandHome(keypairPath)
	if err != nil {
		return nil, configurationError(StageIdentity, err)
	}

	key, err := solana.LoadKeypairFile(keypairPath)
	if err != nil {
		return nil, configurationError(StageIdentity, err)
	}

	identity := &Identity{
		KeypairPath: keypairPath,
		Key:         key,
	}

	log.WithFields(logrus.Fields{
		"keypair_path": keypairPath,
		"address":      solana.PublicKeyString(identity.PublicKey()),
	}).Info("Local account loaded successfully")

	return identity, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
