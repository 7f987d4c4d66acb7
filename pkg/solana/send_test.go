package solana_test

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-pinger/pkg/solana"
	"github.com/code-payments/program-pinger/pkg/solana/memory"
	"github.com/code-payments/program-pinger/pkg/solana/system"
	"github.com/code-payments/program-pinger/pkg/testutil"
)

func TestSendAndConfirmTransaction(t *testing.T) {
	defer testutil.DisableLogging()()

	client := memory.New()
	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)
	recipient := testutil.GenerateSolanaKeys(t, 1)[0]
	client.Fund(payerKey, system.LamportsPerSol)

	txn := solana.NewTransaction(payerKey, system.Transfer(payerKey, recipient, 100))
	sig, err := solana.SendAndConfirmTransaction(client, solana.CommitmentConfirmed, txn, payer)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)

	submitted := client.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, sig, submitted[0].Signatures[0])
	assert.NoError(t, submitted[0].VerifySignatures())

	balance, err := client.GetBalance(recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 100, balance)
}

func TestSendAndConfirmTransaction_Failed(t *testing.T) {
	defer testutil.DisableLogging()()

	client := memory.New()
	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)
	recipient := testutil.GenerateSolanaKeys(t, 1)[0]
	client.Fund(payerKey, system.LamportsPerSol)

	txn := solana.NewTransaction(payerKey, system.Transfer(payerKey, recipient, 2*system.LamportsPerSol))
	sig, err := solana.SendAndConfirmTransaction(client, solana.CommitmentConfirmed, txn, payer)
	require.Error(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)
	assert.True(t, solana.IsRemoteRejection(err))

	code, ok := solana.CustomErrorCode(err)
	require.True(t, ok)
	assert.Equal(t, system.ErrorResultWithNegativeLamports, code)
}

func TestSendAndConfirmTransaction_Transport(t *testing.T) {
	defer testutil.DisableLogging()()

	client := memory.New()
	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)
	txn := solana.NewTransaction(payerKey, system.Transfer(payerKey, payerKey, 1))

	unreachable := errors.New("dial tcp: connection refused")
	client.SetError(memory.MethodGetLatestBlockhash, unreachable)
	_, err := solana.SendAndConfirmTransaction(client, solana.CommitmentConfirmed, txn, payer)
	assert.True(t, errors.Is(err, unreachable))
	assert.False(t, solana.IsRemoteRejection(err))
	assert.Zero(t, client.Calls(memory.MethodSubmitTransaction))

	_, err = solana.SendAndConfirmTransaction(client, solana.CommitmentConfirmed, txn)
	assert.Error(t, err)

	client.SetError(memory.MethodGetLatestBlockhash, nil)
	other := testutil.GenerateSolanaKeypair(t)
	_, err = solana.SendAndConfirmTransaction(client, solana.CommitmentConfirmed, txn, other)
	assert.Error(t, err)
	assert.Zero(t, client.Calls(memory.MethodSubmitTransaction))
}
