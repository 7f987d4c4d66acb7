package solana

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
)

// SendAndConfirmTransaction sets a recent blockhash on txn, signs it, submits it
// and blocks until it reaches commitment.
//
// If the ledger rejects the transaction, the returned error wraps a
// *TransactionError. The signature is returned whenever the transaction was
// signed, so that callers can log it even on failure.
func SendAndConfirmTransaction(client Client, commitment Commitment, txn Transaction, signers ...ed25519.PrivateKey) (Signature, error) {
	if len(signers) == 0 {
		return Signature{}, errors.New("at least one signer is required")
	}

	blockhash, err := client.GetLatestBlockhash()
	if err != nil {
		return Signature{}, errors.Wrap(err, "failed to get recent blockhash")
	}

	txn.SetBlockhash(blockhash)
	if err := txn.Sign(signers...); err != nil {
		return Signature{}, errors.Wrap(err, "failed to sign transaction")
	}

	sig, err := client.SubmitTransaction(txn, commitment)
	if err != nil {
		return sig, errors.Wrap(err, "failed to submit transaction")
	}

	status, err := client.GetSignatureStatus(sig, commitment)
	if err != nil {
		return sig, errors.Wrapf(err, "failed to confirm transaction %s", sig)
	}
	if status == nil {
		return sig, errors.Wrapf(ErrSignatureNotFound, "transaction %s", sig)
	}
	if status.ErrorResult != nil {
		return sig, errors.Wrapf(status.ErrorResult, "transaction %s failed", sig)
	}

	return sig, nil
}
