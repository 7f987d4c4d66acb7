package ping

import (
	"crypto/ed25519"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-pinger/pkg/solana"
)

const programKeypairSuffix = "-keypair.json"

var ErrInvalidProgramName = errors.New("invalid program name")

// Program is a deployed on-chain program, identified by the keypair the
// deployment was made with.
type Program struct {
	Name        string
	KeypairPath string
	Address     ed25519.PublicKey
}

// ProgramKeypairPath returns where the keypair of the named program is
// expected, <dir>/<name>-keypair.json.
func ProgramKeypairPath(dir, name string) string {
	return filepath.Join(dir, name+programKeypairSuffix)
}

// ResolveProgram loads the named program's keypair from dir and returns its
// address. There is no default program.
func ResolveProgram(dir, name string) (*Program, error) {
	if err := validateProgramName(name); err != nil {
		return nil, configurationError(StageProgram, err)
	}

	path, err := expandHome(ProgramKeypairPath(dir, name))
	if err != nil {
		return nil, configurationError(StageProgram, err)
	}

	key, err := solana.LoadKeypairFile(path)
	if err != nil {
		return nil, configurationError(StageProgram, errors.Wrapf(err, "program %s is not available", name))
	}

	program := &Program{
		Name:        name,
		KeypairPath: path,
		Address:     key.Public().(ed25519.PublicKey),
	}

	logrus.StandardLogger().WithFields(logrus.Fields{
		"type":    "ping/program",
		"method":  "ResolveProgram",
		"program": name,
		"address": solana.PublicKeyString(program.Address),
	}).Infof("Using program %s", solana.PublicKeyString(program.Address))

	return program, nil
}

func validateProgramName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return errors.Wrap(ErrInvalidProgramName, "name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.Wrapf(ErrInvalidProgramName, "%q is not a plain file name", name)
	}
	return nil
}
