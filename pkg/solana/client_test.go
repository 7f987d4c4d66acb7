package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-pinger/pkg/retry"
)

func TestSignatureStatus(t *testing.T) {
	zero, one := 0, 1

	testCases := []struct {
		s         SignatureStatus
		confirmed bool
		finalized bool
	}{
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: "",
			},
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: "random",
			},
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: confirmationStatusProcessed,
			},
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &one,
				ConfirmationStatus: "",
			},
			confirmed: true,
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: confirmationStatusConfirmed,
			},
			confirmed: true,
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: confirmationStatusFinalized,
			},
			confirmed: true,
			finalized: true,
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.confirmed, tc.s.Confirmed())
		assert.Equal(t, tc.finalized, tc.s.Finalized())

		assert.True(t, tc.s.Reached(CommitmentProcessed))
		assert.Equal(t, tc.confirmed, tc.s.Reached(CommitmentConfirmed))
		assert.Equal(t, tc.finalized, tc.s.Reached(CommitmentFinalized))
	}

	assert.False(t, SignatureStatus{}.Reached(Commitment{Commitment: "max"}))
}

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// newTestServer answers JSON-RPC requests using handlers keyed by method. A
// handler returns either a result or an *rpcError.
func newTestServer(t *testing.T, handlers map[string]func(params []json.RawMessage) interface{}) (Client, map[string]int) {
	calls := make(map[string]int)
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		mu.Lock()
		calls[req.Method]++
		mu.Unlock()

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      0,
		}

		handler, ok := handlers[req.Method]
		if !ok {
			resp["error"] = rpcError{Code: -32601, Message: "method not found"}
		} else if result := handler(req.Params); result != nil {
			if e, ok := result.(*rpcError); ok {
				resp["error"] = e
			} else {
				resp["result"] = result
			}
		} else {
			resp["result"] = nil
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	return New(server.URL), calls
}

func TestClient_GetAccountInfo(t *testing.T) {
	owner := make([]byte, 32)
	owner[0] = 7

	var requested string
	client, _ := newTestServer(t, map[string]func([]json.RawMessage) interface{}{
		"getAccountInfo": func(params []json.RawMessage) interface{} {
			require.Len(t, params, 2)
			require.NoError(t, json.Unmarshal(params[0], &requested))

			var config map[string]string
			require.NoError(t, json.Unmarshal(params[1], &config))
			assert.Equal(t, "confirmed", config["commitment"])
			assert.Equal(t, "base64", config["encoding"])

			if requested == base58.Encode(make([]byte, 32)) {
				return map[string]interface{}{"context": map[string]int{"slot": 1}, "value": nil}
			}

			return map[string]interface{}{
				"context": map[string]int{"slot": 1},
				"value": map[string]interface{}{
					"lamports":   1000,
					"owner":      base58.Encode(owner),
					"data":       []string{base64.StdEncoding.EncodeToString([]byte{1, 0, 0, 0}), "base64"},
					"executable": false,
				},
			}
		},
	})

	address := make([]byte, 32)
	address[31] = 1

	info, err := client.GetAccountInfo(address, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(address), requested)
	assert.EqualValues(t, 1000, info.Lamports)
	assert.EqualValues(t, owner, info.Owner)
	assert.Equal(t, []byte{1, 0, 0, 0}, info.Data)
	assert.False(t, info.Executable)

	_, err = client.GetAccountInfo(make([]byte, 32), CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_GetLatestBlockhash_Cached(t *testing.T) {
	hash := make([]byte, 32)
	hash[0] = 42

	client, calls := newTestServer(t, map[string]func([]json.RawMessage) interface{}{
		"getLatestBlockhash": func(_ []json.RawMessage) interface{} {
			return map[string]interface{}{
				"context": map[string]int{"slot": 1},
				"value": map[string]interface{}{
					"blockhash":            base58.Encode(hash),
					"lastValidBlockHeight": 100,
				},
			}
		},
	})

	for i := 0; i < 3; i++ {
		bh, err := client.GetLatestBlockhash()
		require.NoError(t, err)
		assert.EqualValues(t, hash, bh[:])
	}
	assert.Equal(t, 1, calls["getLatestBlockhash"])
}

func TestClient_GetSignatureStatuses(t *testing.T) {
	client, _ := newTestServer(t, map[string]func([]json.RawMessage) interface{}{
		"getSignatureStatuses": func(params []json.RawMessage) interface{} {
			var sigs []string
			require.NoError(t, json.Unmarshal(params[0], &sigs))
			require.Len(t, sigs, 3)

			return map[string]interface{}{
				"context": map[string]int{"slot": 10},
				"value": []interface{}{
					map[string]interface{}{
						"slot":               9,
						"confirmations":      nil,
						"confirmationStatus": "finalized",
						"err":                nil,
					},
					map[string]interface{}{
						"slot":               10,
						"confirmations":      1,
						"confirmationStatus": "confirmed",
						"err":                map[string]interface{}{"InstructionError": []interface{}{0, map[string]int{"Custom": 0}}},
					},
					nil,
				},
			}
		},
	})

	statuses, err := client.GetSignatureStatuses([]Signature{{1}, {2}, {3}})
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	require.NotNil(t, statuses[0])
	assert.True(t, statuses[0].Finalized())
	assert.Nil(t, statuses[0].ErrorResult)

	require.NotNil(t, statuses[1])
	assert.True(t, statuses[1].Confirmed())
	require.NotNil(t, statuses[1].ErrorResult)
	code, ok := CustomErrorCode(statuses[1].ErrorResult)
	require.True(t, ok)
	assert.Equal(t, CustomError(0), code)

	assert.Nil(t, statuses[2])
}

func TestClient_SubmitTransaction(t *testing.T) {
	_, payer, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	program, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	txn := NewTransaction(payer.Public().(ed25519.PublicKey), NewInstruction(program, nil))
	require.NoError(t, txn.Sign(payer))

	reject := false
	client, _ := newTestServer(t, map[string]func([]json.RawMessage) interface{}{
		"sendTransaction": func(params []json.RawMessage) interface{} {
			var encoded string
			require.NoError(t, json.Unmarshal(params[0], &encoded))

			raw, err := base58.Decode(encoded)
			require.NoError(t, err)

			var decoded Transaction
			require.NoError(t, decoded.Unmarshal(raw))
			assert.Equal(t, txn.Signatures, decoded.Signatures)

			if reject {
				return &rpcError{
					Code:    -32002,
					Message: "Transaction simulation failed",
					Data: map[string]interface{}{
						"err":  "BlockhashNotFound",
						"logs": []string{},
					},
				}
			}
			return base58.Encode(txn.Signatures[0][:])
		},
	})

	sig, err := client.SubmitTransaction(txn, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, txn.Signatures[0], sig)

	reject = true
	_, err = client.SubmitTransaction(txn, CommitmentConfirmed)
	require.Error(t, err)
	assert.True(t, IsRemoteRejection(err))

	var txErr *TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, TransactionErrorBlockhashNotFound, txErr.ErrorKey())
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(url)
	_, err := client.GetAccountInfo(make([]byte, 32), CommitmentConfirmed)
	require.Error(t, err)
	assert.False(t, IsRemoteRejection(err))
}

func TestClient_Limiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":0,"result":12}`))
	}))
	defer server.Close()

	c := New(server.URL, WithLimiter(&denyAll{}), WithHTTPTimeout(time.Second)).(*client)
	c.retrier = retry.NewRetrier(retry.RetriableErrors(errRateLimited), retry.Limit(2))

	_, err := c.GetMinimumBalanceForRentExemption(8)
	assert.True(t, errors.Is(err, errRateLimited))

	c.limiter = nil
	lamports, err := c.GetMinimumBalanceForRentExemption(8)
	require.NoError(t, err)
	assert.EqualValues(t, 12, lamports)
}

type denyAll struct{}

func (denyAll) Allow(string) (bool, error) {
	return false, nil
}
