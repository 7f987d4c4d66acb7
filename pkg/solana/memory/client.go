// Package memory provides an in-memory ledger implementing solana.Client.
//
// Transactions are verified, charged a flat fee and executed synchronously on
// submission. System program account creation and transfers are supported
// natively; other programs are registered with Deploy.
package memory

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-pinger/pkg/solana"
)

const (
	MethodGetAccountInfo                    = "getAccountInfo"
	MethodGetBalance                        = "getBalance"
	MethodGetLatestBlockhash                = "getLatestBlockhash"
	MethodGetMinimumBalanceForRentExemption = "getMinimumBalanceForRentExemption"
	MethodGetSignatureStatus                = "getSignatureStatus"
	MethodGetSignatureStatuses              = "getSignatureStatuses"
	MethodRequestAirdrop                    = "requestAirdrop"
	MethodSubmitTransaction                 = "sendTransaction"
)

const (
	// LamportsPerSignature is the fee charged to the payer per required signature.
	LamportsPerSignature = 5000

	// Rent parameters of the default cluster configuration.
	lamportsPerByteYear    = 3480
	exemptionThresholdYear = 2
	accountStorageOverhead = 128
)

// Client is an in-memory solana.Client. The zero value is not usable; use New.
type Client struct {
	log *logrus.Entry

	mu          sync.Mutex
	slot        uint64
	blockhash   solana.Blockhash
	blockhashes map[solana.Blockhash]struct{}
	accounts    map[string]*solana.AccountInfo
	programs    map[string]Program
	statuses    map[solana.Signature]*solana.SignatureStatus
	submitted   []solana.Transaction
	calls       map[string]int
	errs        map[string]error
}

// New returns an empty ledger with the system program deployed.
func New() *Client {
	c := &Client{
		log:         logrus.StandardLogger().WithField("type", "solana/memory"),
		blockhashes: make(map[solana.Blockhash]struct{}),
		accounts:    make(map[string]*solana.AccountInfo),
		programs:    make(map[string]Program),
		statuses:    make(map[solana.Signature]*solana.SignatureStatus),
		calls:       make(map[string]int),
		errs:        make(map[string]error),
	}

	c.accounts[key(systemProgram)] = &solana.AccountInfo{
		Owner:      systemProgram,
		Lamports:   1,
		Executable: true,
	}
	c.advanceLocked()

	return c
}

// SetAccount creates or replaces an account.
func (c *Client) SetAccount(address ed25519.PublicKey, info solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accounts[key(address)] = cloneAccount(&info)
}

// Fund credits lamports to address, creating a system owned account if needed.
func (c *Client) Fund(address ed25519.PublicKey, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.creditLocked(address, lamports)
}

// Deploy registers an executable program at address.
func (c *Client) Deploy(address ed25519.PublicKey, program Program) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accounts[key(address)] = &solana.AccountInfo{
		Owner:      bpfLoader,
		Lamports:   1,
		Executable: true,
	}
	c.programs[key(address)] = program
}

// Account returns a copy of the account at address, if it exists.
func (c *Client) Account(address ed25519.PublicKey) (solana.AccountInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.accounts[key(address)]
	if !ok {
		return solana.AccountInfo{}, false
	}

	return *cloneAccount(info), true
}

// SetError makes every subsequent call to method fail with err. A nil err
// clears the failure.
func (c *Client) SetError(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		delete(c.errs, method)
		return
	}
	c.errs[method] = err
}

// Calls returns the number of times method has been invoked.
func (c *Client) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (c *Client) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int
	for _, n := range c.calls {
		total += n
	}
	return total
}

// MutatingCalls returns the number of calls that could change ledger state.
func (c *Client) MutatingCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls[MethodSubmitTransaction] + c.calls[MethodRequestAirdrop]
}

// Submitted returns every transaction passed to SubmitTransaction, in order.
func (c *Client) Submitted() []solana.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]solana.Transaction(nil), c.submitted...)
}

func (c *Client) GetAccountInfo(address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enterLocked(MethodGetAccountInfo); err != nil {
		return solana.AccountInfo{}, err
	}

	info, ok := c.accounts[key(address)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}

	return *cloneAccount(info), nil
}

func (c *Client) GetBalance(address ed25519.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enterLocked(MethodGetBalance); err != nil {
		return 0, err
	}

	if info, ok := c.accounts[key(address)]; ok {
		return info.Lamports, nil
	}
	return 0, nil
}

func (c *Client) GetLatestBlockhash() (solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enterLocked(MethodGetLatestBlockhash); err != nil {
		return solana.Blockhash{}, err
	}

	return c.blockhash, nil
}

func (c *Client) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enterLocked(MethodGetMinimumBalanceForRentExemption); err != nil {
		return 0, err
	}

	return RentExemptBalance(size), nil
}

func (c *Client) GetSignatureStatus(sig solana.Signature, commitment solana.Commitment) (*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enterLocked(MethodGetSignatureStatus); err != nil {
		return nil, err
	}

	status, ok := c.statuses[sig]
	if !ok {
		return nil, solana.ErrSignatureNotFound
	}

	copied := *status
	return &copied, nil
}

func (c *Client) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enterLocked(MethodGetSignatureStatuses); err != nil {
		return nil, err
	}

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		if status, ok := c.statuses[sig]; ok {
			copied := *status
			statuses[i] = &copied
		}
	}

	return statuses, nil
}

func (c *Client) RequestAirdrop(address ed25519.PublicKey, lamports uint64, _ solana.Commitment) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enterLocked(MethodRequestAirdrop); err != nil {
		return solana.Signature{}, err
	}

	var sig solana.Signature
	if _, err := rand.Read(sig[:]); err != nil {
		return sig, errors.Wrap(err, "failed to generate airdrop signature")
	}

	c.creditLocked(address, lamports)
	c.recordLocked(sig, nil)
	c.advanceLocked()

	c.log.WithFields(logrus.Fields{
		"method":   "RequestAirdrop",
		"address":  base58.Encode(address),
		"lamports": lamports,
	}).Debug("airdrop credited")

	return sig, nil
}

// SubmitTransaction verifies and executes txn. As with preflight disabled on a
// real cluster, execution failures are reported through the signature status
// rather than the returned error. Transactions that cannot be charged a fee are
// rejected outright.
func (c *Client) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sig solana.Signature
	if len(txn.Signatures) > 0 {
		sig = txn.Signatures[0]
	}

	if err := c.enterLocked(MethodSubmitTransaction); err != nil {
		return sig, err
	}
	c.submitted = append(c.submitted, txn)

	log := c.log.WithFields(logrus.Fields{
		"method":    "SubmitTransaction",
		"signature": sig.String(),
	})

	if len(txn.Signatures) == 0 || txn.VerifySignatures() != nil {
		return sig, solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}
	if _, ok := c.statuses[sig]; ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
	}
	if _, ok := c.blockhashes[txn.Message.RecentBlockhash]; !ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}

	payer, ok := c.accounts[key(txn.Message.Accounts[0])]
	if !ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorAccountNotFound)
	}
	fee := uint64(LamportsPerSignature * len(txn.Signatures))
	if payer.Lamports < fee {
		return sig, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}
	payer.Lamports -= fee

	txErr := c.executeLocked(txn.Message)
	c.recordLocked(sig, txErr)
	c.advanceLocked()

	if txErr != nil {
		log.WithError(txErr).Debug("transaction failed")
	} else {
		log.Debug("transaction processed")
	}

	return sig, nil
}

// RentExemptBalance returns the minimum balance for an account of size bytes
// to be exempt from rent.
func RentExemptBalance(size uint64) uint64 {
	return (accountStorageOverhead + size) * lamportsPerByteYear * exemptionThresholdYear
}

func (c *Client) enterLocked(method string) error {
	c.calls[method]++
	return c.errs[method]
}

func (c *Client) creditLocked(address ed25519.PublicKey, lamports uint64) {
	info, ok := c.accounts[key(address)]
	if !ok {
		info = &solana.AccountInfo{Owner: systemProgram}
		c.accounts[key(address)] = info
	}
	info.Lamports += lamports
}

func (c *Client) recordLocked(sig solana.Signature, txErr *solana.TransactionError) {
	c.statuses[sig] = &solana.SignatureStatus{
		Slot:               c.slot,
		ErrorResult:        txErr,
		ConfirmationStatus: "finalized",
	}
}

// advanceLocked moves to the next slot, producing a new blockhash. Earlier
// blockhashes remain valid.
func (c *Client) advanceLocked() {
	c.slot++

	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], c.slot)
	c.blockhash = sha256.Sum256(append(c.blockhash[:], seed[:]...))
	c.blockhashes[c.blockhash] = struct{}{}
}

func key(address ed25519.PublicKey) string {
	return string(address)
}

func cloneAccount(info *solana.AccountInfo) *solana.AccountInfo {
	return &solana.AccountInfo{
		Data:       append([]byte(nil), info.Data...),
		Owner:      append(ed25519.PublicKey(nil), info.Owner...),
		Lamports:   info.Lamports,
		Executable: info.Executable,
	}
}
