// Package ping creates a program owned account for a local identity and sends
// a single ping instruction to the program with it.
//
// A run moves through Connect, LoadIdentity, ResolveProgram, ProvisionAccount
// and Ping. Each stage's output is passed explicitly to the next one, and the
// first failure ends the run.
package ping

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-pinger/pkg/metrics"
	"github.com/code-payments/program-pinger/pkg/rate"
	"github.com/code-payments/program-pinger/pkg/solana"
)

const (
	metricsStructName = "ping"

	DefaultProgramName  = "helloworld"
	DefaultAccountSpace = 8
)

// Params are the per run inputs.
type Params struct {
	ProgramName  string
	AccountSpace uint64
}

// Result describes how far a run got and what it did.
type Result struct {
	RunID string
	State State

	Identity ed25519.PublicKey
	Program  *Program
	Account  *ClientAccount

	PingSignature solana.Signature

	// Counter is the account's greeting counter after the ping, when it could
	// be read.
	Counter *uint32
}

// Derivation is the client account address a run would use.
type Derivation struct {
	Owner   ed25519.PublicKey
	Program *Program
	Seed    string
	Address ed25519.PublicKey

	// OnCurve is set when a private key could exist for Address.
	OnCurve bool
}

type Workflow struct {
	log  *logrus.Entry
	conf *conf

	client  solana.Client
	funding FundingProvider
}

type Option func(*Workflow)

// WithClient makes the workflow use client rather than one built for the
// configured endpoint.
func WithClient(client solana.Client) Option {
	return func(w *Workflow) {
		w.client = client
	}
}

// WithFundingProvider overrides the funding selected by configuration.
func WithFundingProvider(provider FundingProvider) Option {
	return func(w *Workflow) {
		w.funding = provider
	}
}

func New(configProvider ConfigProvider, opts ...Option) *Workflow {
	w := &Workflow{
		log:  logrus.StandardLogger().WithField("type", "ping/workflow"),
		conf: configProvider(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

type settings struct {
	endpoint        string
	commitment      string
	cliConfigPath   string
	programPath     string
	seed            string
	accountLamports uint64
	airdropLamports uint64
	rpcRateLimit    float64
	rpcTimeout      time.Duration
}

func (w *Workflow) loadSettings(ctx context.Context) (*settings, error) {
	var s settings
	var err error

	if s.endpoint, err = w.conf.rpcEndpoint.GetSafe(ctx); err != nil {
		return nil, configurationError(StageConfig, errors.Wrap(err, RPCEndpointConfigEnvName))
	}
	if s.commitment, err = w.conf.commitment.GetSafe(ctx); err != nil {
		return nil, configurationError(StageConfig, errors.Wrap(err, CommitmentConfigEnvName))
	}
	if s.cliConfigPath, err = w.conf.cliConfigPath.GetSafe(ctx); err != nil {
		return nil, configurationError(StageConfig, errors.Wrap(err, CLIConfigPathConfigEnvName))
	}
	if s.programPath, err = w.conf.programPath.GetSafe(ctx); err != nil {
		return nil, configurationError(StageConfig, errors.Wrap(err, ProgramPathConfigEnvName))
	}
	if s.seed, err = w.conf.accountSeed.GetSafe(ctx); err != nil {
		return nil, configurationError(StageConfig, errors.Wrap(err, AccountSeedConfigEnvName))
	}
	if s.accountLamports, err = w.conf.accountLamports.GetSafe(ctx); err != nil {
		return nil, configurationError(StageConfig, errors.Wrap(err, AccountLamportsConfigEnvName))
	}
	if s.airdropLamports, err = w.conf.airdropLamports.GetSafe(ctx); err != nil {
		return nil, configurationError(StageConfig, errors.Wrap(err, AirdropLamportsConfigEnvName))
	}
	if s.rpcRateLimit, err = w.conf.rpcRateLimit.GetSafe(ctx); err != nil {
		return nil, configurationError(StageConfig, errors.Wrap(err, RPCRateLimitConfigEnvName))
	}
	if s.rpcTimeout, err = w.conf.rpcTimeout.GetSafe(ctx); err != nil {
		return nil, configurationError(StageConfig, errors.Wrap(err, RPCTimeoutConfigEnvName))
	}

	return &s, nil
}

func (w *Workflow) connect(s *settings) (*Connection, error) {
	if w.client != nil {
		return NewConnection(w.client, s.endpoint, s.commitment)
	}

	return Connect(
		s.endpoint,
		s.commitment,
		solana.WithHTTPTimeout(s.rpcTimeout),
		solana.WithLimiter(rate.NewLimiter(s.rpcRateLimit)),
	)
}

func (w *Workflow) fundingProvider(s *settings) FundingProvider {
	if w.funding != nil {
		return w.funding
	}
	return NewFundingProvider(s.airdropLamports)
}

// Run performs one ping. The returned Result is never nil, and records the
// last state reached even when err is set.
func (w *Workflow) Run(ctx context.Context, params Params) (result *Result, err error) {
	ctx, end := metrics.StartTransaction(ctx, metricsStructName+" Run")
	defer end()

	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Run")
	defer tracer.End()

	result = &Result{
		RunID: uuid.New().String(),
		State: StateDisconnected,
	}

	log := w.log.WithFields(logrus.Fields{
		"method":  "Run",
		"run_id":  result.RunID,
		"program": params.ProgramName,
	})

	defer func() {
		tracer.OnError(err)
		w.recordResult(ctx, params, result, err)

		if err != nil {
			log.WithError(err).
				WithFields(failureFields(err)).
				WithField("state", result.State.String()).
				Warn("ping failed")
		}
	}()

	s, err := w.loadSettings(ctx)
	if err != nil {
		return result, err
	}

	var conn *Connection
	err = w.timed(ctx, StageConnect, func() (err error) {
		conn, err = w.connect(s)
		return err
	})
	if err != nil {
		return result, err
	}
	result.State = StateConnected

	var identity *Identity
	err = w.timed(ctx, StageIdentity, func() (err error) {
		identity, err = LoadIdentity(s.cliConfigPath)
		return err
	})
	if err != nil {
		return result, err
	}
	result.Identity = identity.PublicKey()
	result.State = StateIdentityLoaded

	var program *Program
	err = w.timed(ctx, StageProgram, func() (err error) {
		program, err = ResolveProgram(s.programPath, params.ProgramName)
		return err
	})
	if err != nil {
		return result, err
	}
	result.Program = program
	result.State = StateProgramResolved

	err = w.timed(ctx, StageFunding, func() error {
		return w.fundingProvider(s).Fund(ctx, conn, identity)
	})
	if err != nil {
		return result, err
	}

	var account *ClientAccount
	err = w.timed(ctx, StageProvision, func() (err error) {
		account, err = ProvisionAccount(ctx, conn, identity, program, ProvisionRequest{
			Seed:     s.seed,
			Space:    params.AccountSpace,
			Lamports: s.accountLamports,
		})
		return err
	})
	if err != nil {
		return result, err
	}
	result.Account = account
	result.State = StateAccountReady

	if account.Created {
		metrics.RecordCount(ctx, metricsStructName+".accounts_created", 1)
	}

	var sig solana.Signature
	err = w.timed(ctx, StageDispatch, func() (err error) {
		sig, err = Ping(ctx, conn, identity, program, account)
		return err
	})
	if err != nil {
		return result, err
	}
	result.PingSignature = sig
	result.State = StatePinged

	result.Counter = w.readCounter(conn, account, log)

	log.WithFields(logrus.Fields{
		"address":   solana.PublicKeyString(account.Address),
		"signature": sig.String(),
		"created":   account.Created,
	}).Info("Success")

	return result, nil
}

// Derive resolves the identity and program and returns the client account
// address a run would use, without contacting the ledger.
func (w *Workflow) Derive(ctx context.Context, programName string) (*Derivation, error) {
	s, err := w.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	identity, err := LoadIdentity(s.cliConfigPath)
	if err != nil {
		return nil, err
	}

	program, err := ResolveProgram(s.programPath, programName)
	if err != nil {
		return nil, err
	}

	address, err := DeriveClientAddress(identity.PublicKey(), program.Address, s.seed)
	if err != nil {
		return nil, configurationError(StageProvision, err)
	}

	return &Derivation{
		Owner:   identity.PublicKey(),
		Program: program,
		Seed:    s.seed,
		Address: address,
		OnCurve: solana.IsOnCurve(address),
	}, nil
}

func (w *Workflow) timed(ctx context.Context, stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordDuration(ctx, metricsStructName+"."+string(stage)+".duration", time.Since(start))
	return err
}

// readCounter is best effort; the ping has already succeeded.
func (w *Workflow) readCounter(conn *Connection, account *ClientAccount, log *logrus.Entry) *uint32 {
	info, err := conn.client.GetAccountInfo(account.Address, conn.commitment)
	if err != nil {
		log.WithError(err).Warn("failed to read client account after ping")
		return nil
	}

	counter, err := DecodeCounter(info.Data)
	if err != nil {
		log.WithError(err).Debug("client account holds no counter")
		return nil
	}

	log.Infof("%s has been greeted %d time(s)", solana.PublicKeyString(account.Address), counter)
	return &counter
}

func (w *Workflow) recordResult(ctx context.Context, params Params, result *Result, err error) {
	kvPairs := map[string]interface{}{
		"run_id":  result.RunID,
		"program": params.ProgramName,
		"space":   params.AccountSpace,
		"state":   result.State.String(),
		"success": err == nil,
	}

	for k, v := range failureFields(err) {
		kvPairs[k] = v
	}
	if result.Account != nil {
		kvPairs["address"] = solana.PublicKeyString(result.Account.Address)
		kvPairs["created"] = result.Account.Created
	}
	if result.Counter != nil {
		kvPairs["counter"] = *result.Counter
	}

	metrics.RecordEvent(ctx, "PingResult", kvPairs)
}
