package ping

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math/big"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-pinger/pkg/metrics"
	"github.com/code-payments/program-pinger/pkg/solana"
	"github.com/code-payments/program-pinger/pkg/solana/system"
)

// MaxAccountSpace is the largest data size the ledger allows an account to be
// created with.
const MaxAccountSpace = 10 * 1024 * 1024

var ErrAccountSpaceTooLarge = errors.New("account space too large")

// ClientAccount is the program owned account pings are addressed to.
type ClientAccount struct {
	Address  ed25519.PublicKey
	Seed     string
	Space    uint64
	Lamports uint64

	// Created is set when this run created the account, in which case
	// Signature is the creating transaction.
	Created   bool
	Signature solana.Signature
}

// DeriveClientAddress returns the address of the account owner creates for
// program with seed. The same inputs always produce the same address.
func DeriveClientAddress(owner, program ed25519.PublicKey, seed string) (ed25519.PublicKey, error) {
	address, err := solana.CreateWithSeed(owner, seed, program)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to derive address with seed %q", seed)
	}
	return address, nil
}

// ProvisionRequest describes the account ProvisionAccount makes sure exists.
type ProvisionRequest struct {
	Seed     string
	Space    uint64
	Lamports uint64
}

// ProvisionAccount makes sure the derived client account exists. An existing
// account is reused as is. Otherwise it is created with the requested space
// and lamports, owned by program, and the call blocks until the creation is
// confirmed.
//
// Concurrent callers racing to create the same account aren't reconciled: the
// loser gets a remote rejection.
func ProvisionAccount(ctx context.Context, conn *Connection, identity *Identity, program *Program, req ProvisionRequest) (*ClientAccount, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ProvisionAccount")
	defer tracer.End()

	account, err := provisionAccount(conn, identity, program, req)
	tracer.OnError(err)
	return account, err
}

func provisionAccount(conn *Connection, identity *Identity, program *Program, req ProvisionRequest) (*ClientAccount, error) {
	if req.Space > MaxAccountSpace {
		return nil, configurationError(StageProvision, errors.Wrapf(ErrAccountSpaceTooLarge, "%d > %d", req.Space, MaxAccountSpace))
	}

	owner := identity.PublicKey()
	address, err := DeriveClientAddress(owner, program.Address, req.Seed)
	if err != nil {
		return nil, configurationError(StageProvision, err)
	}

	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":    "ping/provision",
		"method":  "ProvisionAccount",
		"program": program.Name,
		"address": solana.PublicKeyString(address),
		"seed":    req.Seed,
	})

	if solana.IsOnCurve(address) {
		log.Warn("client address lies on the ed25519 curve")
	}

	account := &ClientAccount{
		Address:  address,
		Seed:     req.Seed,
		Space:    req.Space,
		Lamports: req.Lamports,
	}

	info, err := conn.client.GetAccountInfo(address, conn.commitment)
	switch {
	case err == nil:
		account.Space = uint64(len(info.Data))
		account.Lamports = info.Lamports

		if !bytes.Equal(info.Owner, program.Address) {
			log.WithField("owner", solana.PublicKeyString(info.Owner)).Warn("client account is not owned by the program")
		}
		if uint64(len(info.Data)) < req.Space {
			log.WithField("space", humanize.IBytes(uint64(len(info.Data)))).Warn("client account is smaller than requested")
		}

		log.Info("Client account already exists, reusing it")
		return account, nil
	case errors.Is(err, solana.ErrNoAccountInfo):
	default:
		return nil, remoteError(StageProvision, errors.Wrap(err, "failed to get client account info"))
	}

	if minimum, err := conn.client.GetMinimumBalanceForRentExemption(req.Space); err != nil {
		log.WithError(err).Warn("failed to get rent exempt minimum")
	} else if req.Lamports < minimum {
		log.WithFields(logrus.Fields{
			"lamports": formatLamports(req.Lamports),
			"minimum":  formatLamports(minimum),
		}).Warn("client account will not be rent exempt")
	}

	log.WithFields(logrus.Fields{
		"space":    humanize.IBytes(req.Space),
		"lamports": formatLamports(req.Lamports),
		"sol":      formatSol(req.Lamports),
	}).Infof("Creating account %s to say hello to", solana.PublicKeyString(address))

	txn := solana.NewTransaction(
		owner,
		system.CreateAccountWithSeed(
			owner,
			address,
			owner,
			req.Seed,
			req.Lamports,
			req.Space,
			program.Address,
		),
	)

	sig, err := solana.SendAndConfirmTransaction(conn.client, conn.commitment, txn, identity.Key)
	if err != nil {
		return nil, remoteError(StageProvision, errors.Wrap(err, "failed to create client account"))
	}

	account.Created = true
	account.Signature = sig

	log.WithField("signature", sig.String()).Info("Client account created")
	return account, nil
}

// formatLamports renders lamports with thousands separators over the full
// uint64 range.
func formatLamports(lamports uint64) string {
	return humanize.BigComma(new(big.Int).SetUint64(lamports))
}

func formatSol(lamports uint64) string {
	return humanize.FtoaWithDigits(float64(lamports)/float64(system.LamportsPerSol), 9)
}
