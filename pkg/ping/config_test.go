package ping

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-pinger/pkg/config/memory"
	"github.com/code-payments/program-pinger/pkg/config/wrapper"
)

func TestWithEnvConfigs_Defaults(t *testing.T) {
	w := New(WithEnvConfigs())

	s, err := w.loadSettings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://api.devnet.solana.com", s.endpoint)
	assert.Equal(t, "confirmed", s.commitment)
	assert.Equal(t, "~/.config/solana/cli/config.yml", s.cliConfigPath)
	assert.Equal(t, "dist/program", s.programPath)
	assert.Equal(t, "test1", s.seed)
	assert.EqualValues(t, 1_000_000_000, s.accountLamports)
	assert.Zero(t, s.airdropLamports)
	assert.Zero(t, s.rpcRateLimit)
	assert.Equal(t, 30*time.Second, s.rpcTimeout)

	assert.Equal(t, NoFunding{}, w.fundingProvider(s))
}

func TestWithEnvConfigs_Overrides(t *testing.T) {
	t.Setenv(RPCEndpointConfigEnvName, "http://localhost:8899")
	t.Setenv(CommitmentConfigEnvName, "finalized")
	t.Setenv(CLIConfigPathConfigEnvName, "/etc/solana/config.yml")
	t.Setenv(ProgramPathConfigEnvName, "/opt/programs")
	t.Setenv(AccountSeedConfigEnvName, "seed2")
	t.Setenv(AccountLamportsConfigEnvName, "5000000")
	t.Setenv(AirdropLamportsConfigEnvName, "2000000000")
	t.Setenv(RPCRateLimitConfigEnvName, "2.5")
	t.Setenv(RPCTimeoutConfigEnvName, "5s")

	w := New(WithEnvConfigs())

	s, err := w.loadSettings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8899", s.endpoint)
	assert.Equal(t, "finalized", s.commitment)
	assert.Equal(t, "/etc/solana/config.yml", s.cliConfigPath)
	assert.Equal(t, "/opt/programs", s.programPath)
	assert.Equal(t, "seed2", s.seed)
	assert.EqualValues(t, 5_000_000, s.accountLamports)
	assert.EqualValues(t, 2_000_000_000, s.airdropLamports)
	assert.Equal(t, 2.5, s.rpcRateLimit)
	assert.Equal(t, 5*time.Second, s.rpcTimeout)

	assert.Equal(t, AirdropFunding{Lamports: 2_000_000_000}, w.fundingProvider(s))

	conn, err := w.connect(s)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8899", conn.Endpoint())
}

func TestWithEnvConfigs_Invalid(t *testing.T) {
	t.Setenv(RPCTimeoutConfigEnvName, "soon")

	_, err := New(WithEnvConfigs()).loadSettings(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
	assert.Equal(t, StageConfig, StageOf(err))
}

func TestLoadSettings_SourceFailure(t *testing.T) {
	source := memory.NewConfig("dist/program")
	source.SetError(errors.New("config source unavailable"))

	c := withManualTestOverrides(&testOverrides{})()
	c.programPath = wrapper.NewStringConfig(source, defaultProgramPath)

	_, err := New(func() *conf { return c }).loadSettings(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
	assert.Equal(t, StageConfig, StageOf(err))
	assert.Contains(t, err.Error(), ProgramPathConfigEnvName)

	source.SetError(nil)
	s, err := New(func() *conf { return c }).loadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dist/program", s.programPath)
}
