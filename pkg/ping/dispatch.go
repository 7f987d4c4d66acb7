package ping

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-pinger/pkg/metrics"
	"github.com/code-payments/program-pinger/pkg/solana"
)

// NewPingInstruction returns the instruction sent to program: the client
// account as its only, writable, non-signing account, and no data.
func NewPingInstruction(program, account ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		program,
		[]byte{},
		solana.NewAccountMeta(account, false),
	)
}

// Ping sends a single ping instruction for account to program, signed and
// paid for by identity, and blocks until it is confirmed.
func Ping(ctx context.Context, conn *Connection, identity *Identity, program *Program, account *ClientAccount) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Ping")
	defer tracer.End()

	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":    "ping/dispatch",
		"method":  "Ping",
		"program": program.Name,
		"address": solana.PublicKeyString(account.Address),
	})

	log.Infof("Saying hello to %s", solana.PublicKeyString(account.Address))

	txn := solana.NewTransaction(
		identity.PublicKey(),
		NewPingInstruction(program.Address, account.Address),
	)

	sig, err := solana.SendAndConfirmTransaction(conn.client, conn.commitment, txn, identity.Key)
	if err != nil {
		err = remoteError(StageDispatch, errors.Wrap(err, "failed to ping program"))
		tracer.OnError(err)
		return sig, err
	}

	log.WithField("signature", sig.String()).Info("Ping confirmed")
	return sig, nil
}
