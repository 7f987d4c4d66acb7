package ping

import (
	"time"

	"github.com/code-payments/program-pinger/pkg/config"
	"github.com/code-payments/program-pinger/pkg/config/env"
	"github.com/code-payments/program-pinger/pkg/config/memory"
	"github.com/code-payments/program-pinger/pkg/config/wrapper"
	"github.com/code-payments/program-pinger/pkg/solana/system"
)

const (
	envConfigPrefix = "PING_"

	RPCEndpointConfigEnvName = envConfigPrefix + "RPC_ENDPOINT"
	defaultRPCEndpoint       = "https://api.devnet.solana.com"

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = "confirmed"

	CLIConfigPathConfigEnvName = envConfigPrefix + "CLI_CONFIG_PATH"
	defaultCLIConfigPath       = "~/.config/solana/cli/config.yml"

	ProgramPathConfigEnvName = envConfigPrefix + "PROGRAM_PATH"
	defaultProgramPath       = "dist/program"

	AccountSeedConfigEnvName = envConfigPrefix + "ACCOUNT_SEED"
	defaultAccountSeed       = "test1"

	AccountLamportsConfigEnvName = envConfigPrefix + "ACCOUNT_LAMPORTS"
	defaultAccountLamports       = system.LamportsPerSol

	AirdropLamportsConfigEnvName = envConfigPrefix + "AIRDROP_LAMPORTS"
	defaultAirdropLamports       = 0

	RPCRateLimitConfigEnvName = envConfigPrefix + "RPC_RATE_LIMIT"
	defaultRPCRateLimit       = 0

	RPCTimeoutConfigEnvName = envConfigPrefix + "RPC_TIMEOUT"
	defaultRPCTimeout       = 30 * time.Second
)

type conf struct {
	rpcEndpoint     config.String
	commitment      config.String
	cliConfigPath   config.String
	programPath     config.String
	accountSeed     config.String
	accountLamports config.Uint64
	airdropLamports config.Uint64
	rpcRateLimit    config.Float64
	rpcTimeout      config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			rpcEndpoint:     env.NewStringConfig(RPCEndpointConfigEnvName, defaultRPCEndpoint),
			commitment:      env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),
			cliConfigPath:   env.NewStringConfig(CLIConfigPathConfigEnvName, defaultCLIConfigPath),
			programPath:     env.NewStringConfig(ProgramPathConfigEnvName, defaultProgramPath),
			accountSeed:     env.NewStringConfig(AccountSeedConfigEnvName, defaultAccountSeed),
			accountLamports: env.NewUint64Config(AccountLamportsConfigEnvName, defaultAccountLamports),
			airdropLamports: env.NewUint64Config(AirdropLamportsConfigEnvName, defaultAirdropLamports),
			rpcRateLimit:    env.NewFloat64Config(RPCRateLimitConfigEnvName, defaultRPCRateLimit),
			rpcTimeout:      env.NewDurationConfig(RPCTimeoutConfigEnvName, defaultRPCTimeout),
		}
	}
}

type testOverrides struct {
	rpcEndpoint     string
	commitment      string
	cliConfigPath   string
	programPath     string
	accountSeed     string
	accountLamports uint64
	airdropLamports uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			rpcEndpoint:     wrapper.NewStringConfig(memory.NewConfig(valueOr(overrides.rpcEndpoint, defaultRPCEndpoint)), defaultRPCEndpoint),
			commitment:      wrapper.NewStringConfig(memory.NewConfig(valueOr(overrides.commitment, defaultCommitment)), defaultCommitment),
			cliConfigPath:   wrapper.NewStringConfig(memory.NewConfig(valueOr(overrides.cliConfigPath, defaultCLIConfigPath)), defaultCLIConfigPath),
			programPath:     wrapper.NewStringConfig(memory.NewConfig(valueOr(overrides.programPath, defaultProgramPath)), defaultProgramPath),
			accountSeed:     wrapper.NewStringConfig(memory.NewConfig(valueOr(overrides.accountSeed, defaultAccountSeed)), defaultAccountSeed),
			accountLamports: wrapper.NewUint64Config(memory.NewConfig(valueOr(overrides.accountLamports, defaultAccountLamports)), defaultAccountLamports),
			airdropLamports: wrapper.NewUint64Config(memory.NewConfig(overrides.airdropLamports), defaultAirdropLamports),
			rpcRateLimit:    wrapper.NewFloat64Config(memory.NewConfig(float64(defaultRPCRateLimit)), defaultRPCRateLimit),
			rpcTimeout:      wrapper.NewDurationConfig(memory.NewConfig(defaultRPCTimeout), defaultRPCTimeout),
		}
	}
}

func valueOr[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}
