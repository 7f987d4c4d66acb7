package ping

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-pinger/pkg/solana/memory"
	"github.com/code-payments/program-pinger/pkg/solana/system"
)

func TestNewFundingProvider(t *testing.T) {
	assert.Equal(t, NoFunding{}, NewFundingProvider(0))
	assert.Equal(t, AirdropFunding{Lamports: 10}, NewFundingProvider(10))
}

func TestNoFunding(t *testing.T) {
	env := setup(t)

	conn, err := NewConnection(env.client, defaultRPCEndpoint, defaultCommitment)
	require.NoError(t, err)

	require.NoError(t, NoFunding{}.Fund(env.ctx, conn, &Identity{Key: env.owner}))
	assert.Zero(t, env.client.TotalCalls())
}

func TestAirdropFunding(t *testing.T) {
	env := setup(t)

	conn, err := NewConnection(env.client, defaultRPCEndpoint, defaultCommitment)
	require.NoError(t, err)

	identity := &Identity{Key: env.owner}
	require.NoError(t, AirdropFunding{Lamports: system.LamportsPerSol}.Fund(env.ctx, conn, identity))

	balance, err := env.client.GetBalance(env.ownerKey())
	require.NoError(t, err)
	assert.Equal(t, 3*system.LamportsPerSol, balance)
	assert.Equal(t, 1, env.client.Calls(memory.MethodRequestAirdrop))
	assert.Equal(t, 1, env.client.Calls(memory.MethodGetSignatureStatus))

	// Nothing to request.
	require.NoError(t, AirdropFunding{}.Fund(env.ctx, conn, identity))
	assert.Equal(t, 1, env.client.Calls(memory.MethodRequestAirdrop))
}

func TestAirdropFunding_Failure(t *testing.T) {
	env := setup(t)
	env.client.SetError(memory.MethodRequestAirdrop, errors.New("airdrop limit reached"))

	conn, err := NewConnection(env.client, defaultRPCEndpoint, defaultCommitment)
	require.NoError(t, err)

	err = AirdropFunding{Lamports: system.LamportsPerSol}.Fund(env.ctx, conn, &Identity{Key: env.owner})
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, StageFunding, StageOf(err))
}
