package ping

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-pinger/pkg/solana"
)

// FundingProvider tops up the identity before anything is paid for.
type FundingProvider interface {
	Fund(ctx context.Context, conn *Connection, identity *Identity) error
}

// NoFunding leaves the identity's balance as is.
type NoFunding struct{}

func (NoFunding) Fund(_ context.Context, _ *Connection, _ *Identity) error {
	return nil
}

// AirdropFunding requests an airdrop of Lamports to the identity and waits for
// it to be confirmed. Only test clusters honour airdrops.
type AirdropFunding struct {
	Lamports uint64
}

func (f AirdropFunding) Fund(_ context.Context, conn *Connection, identity *Identity) error {
	owner := identity.PublicKey()
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":     "ping/funding",
		"method":   "AirdropFunding.Fund",
		"address":  solana.PublicKeyString(owner),
		"lamports": formatLamports(f.Lamports),
	})

	if f.Lamports == 0 {
		return nil
	}

	sig, err := conn.client.RequestAirdrop(owner, f.Lamports, conn.commitment)
	if err != nil {
		return remoteError(StageFunding, errors.Wrap(err, "failed to request airdrop"))
	}

	log = log.WithField("signature", sig.String())

	status, err := conn.client.GetSignatureStatus(sig, conn.commitment)
	if err != nil {
		return remoteError(StageFunding, errors.Wrapf(err, "failed to confirm airdrop %s", sig))
	}
	if status == nil {
		return remoteError(StageFunding, errors.Wrapf(solana.ErrSignatureNotFound, "airdrop %s", sig))
	}
	if status.ErrorResult != nil {
		return remoteError(StageFunding, errors.Wrapf(status.ErrorResult, "airdrop %s failed", sig))
	}

	balance, err := conn.client.GetBalance(owner)
	if err != nil {
		log.WithError(err).Warn("failed to get balance after airdrop")
		return nil
	}

	log.WithField("sol", formatSol(balance)).Info("Airdrop confirmed")
	return nil
}

// NewFundingProvider returns an AirdropFunding for positive amounts and
// NoFunding otherwise.
func NewFundingProvider(airdropLamports uint64) FundingProvider {
	if airdropLamports == 0 {
		return NoFunding{}
	}
	return AirdropFunding{Lamports: airdropLamports}
}
