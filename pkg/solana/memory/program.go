package memory

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/program-pinger/pkg/solana"
	"github.com/code-payments/program-pinger/pkg/solana/system"
)

var (
	systemProgram = ed25519.PublicKey(system.ProgramKey[:])
	bpfLoader     = mustDecode("BPFLoaderUpgradeab1e11111111111111111111111")
)

// Account is the view of an account passed to a Program. Programs mutate
// Info in place; changes are committed only if every instruction in the
// transaction succeeds.
type Account struct {
	Address    ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
	Exists     bool
	Info       solana.AccountInfo
}

// Program executes a single instruction. Returned errors become the
// instruction error of the transaction; use solana.CustomError for program
// specific codes.
type Program func(program ed25519.PublicKey, accounts []*Account, data []byte) error

// CounterProgram increments a little endian u32 at the start of the first
// account's data. The account must be writable and owned by the program.
func CounterProgram() Program {
	return func(program ed25519.PublicKey, accounts []*Account, _ []byte) error {
		if len(accounts) == 0 {
			return errors.New("NotEnoughAccountKeys")
		}

		account := accounts[0]
		if !account.Exists || !bytes.Equal(account.Info.Owner, program) {
			return errors.New(string(solana.InstructionErrorIncorrectProgramID))
		}
		if len(account.Info.Data) < 4 {
			return errors.New(string(solana.InstructionErrorAccountDataTooSmall))
		}
		if !account.IsWritable {
			return errors.New("ReadonlyDataModified")
		}

		counter := binary.LittleEndian.Uint32(account.Info.Data)
		binary.LittleEndian.PutUint32(account.Info.Data, counter+1)
		return nil
	}
}

// executeLocked runs every instruction of m against a scratch copy of the
// referenced accounts, committing only if all succeed.
func (c *Client) executeLocked(m solana.Message) *solana.TransactionError {
	state := make([]*Account, len(m.Accounts))
	for i, address := range m.Accounts {
		state[i] = &Account{
			Address:    address,
			IsSigner:   m.IsSigner(i),
			IsWritable: m.IsWritable(i),
		}

		if info, ok := c.accounts[key(address)]; ok {
			state[i].Exists = true
			state[i].Info = *cloneAccount(info)
		}
	}

	for index, instruction := range m.Instructions {
		programKey := m.Accounts[instruction.ProgramIndex]

		var err error
		if bytes.Equal(programKey, systemProgram) {
			err = executeSystem(m, index, state)
		} else {
			program, ok := c.programs[key(programKey)]
			if !ok {
				return solana.NewTransactionError(solana.TransactionErrorProgramAccountNotFound)
			}

			accounts := make([]*Account, len(instruction.Accounts))
			for i, accountIndex := range instruction.Accounts {
				accounts[i] = state[accountIndex]
			}

			before := snapshot(state)
			err = program(programKey, accounts, instruction.Data)
			if err == nil {
				err = checkModifications(programKey, before, state)
			}
		}

		if err != nil {
			txErr, convErr := solana.TransactionErrorFromInstructionError(&solana.InstructionError{
				Index: index,
				Err:   err,
			})
			if convErr != nil {
				return solana.NewTransactionError(solana.TransactionErrorInstructionError)
			}
			return txErr
		}
	}

	for _, account := range state {
		if account.Exists {
			c.accounts[key(account.Address)] = cloneAccount(&account.Info)
		}
	}

	return nil
}

func executeSystem(m solana.Message, index int, state []*Account) error {
	instruction := m.Instructions[index]
	account := func(i int) *Account {
		return state[instruction.Accounts[i]]
	}

	if decompiled, err := system.DecompileCreateAccountWithSeed(m, index); err == nil {
		funder, created, base := account(0), account(1), account(2)
		if !funder.IsSigner || !base.IsSigner {
			return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
		}

		expected, err := solana.CreateWithSeed(decompiled.Base, decompiled.Seed, decompiled.Owner)
		if errors.Is(err, solana.ErrMaxSeedLengthExceeded) {
			return system.ErrorMaxSeedLengthExceeded
		}
		if err != nil || !bytes.Equal(expected, decompiled.Address) {
			return system.ErrorAddressWithSeedMismatch
		}

		return allocate(funder, created, decompiled.Lamports, decompiled.Size, decompiled.Owner)
	} else if !errors.Is(err, solana.ErrIncorrectInstruction) {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}

	if decompiled, err := system.DecompileCreateAccount(m, index); err == nil {
		funder, created := account(0), account(1)
		if !funder.IsSigner || !created.IsSigner {
			return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
		}

		return allocate(funder, created, decompiled.Lamports, decompiled.Size, decompiled.Owner)
	} else if !errors.Is(err, solana.ErrIncorrectInstruction) {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}

	if decompiled, err := system.DecompileTransfer(m, index); err == nil {
		from, to := account(0), account(1)
		if !from.IsSigner {
			return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
		}
		if !from.Exists || from.Info.Lamports < decompiled.Lamports {
			return system.ErrorResultWithNegativeLamports
		}

		from.Info.Lamports -= decompiled.Lamports
		if !to.Exists {
			to.Exists = true
			to.Info = solana.AccountInfo{Owner: systemProgram}
		}
		to.Info.Lamports += decompiled.Lamports
		return nil
	}

	return errors.New(string(solana.InstructionErrorInvalidInstructionData))
}

func allocate(funder, created *Account, lamports, size uint64, owner ed25519.PublicKey) error {
	if created.Exists && (created.Info.Lamports > 0 || len(created.Info.Data) > 0 || !bytes.Equal(created.Info.Owner, systemProgram)) {
		return system.ErrorAccountAlreadyInUse
	}
	if !funder.Exists || funder.Info.Lamports < lamports {
		return system.ErrorResultWithNegativeLamports
	}

	funder.Info.Lamports -= lamports
	created.Exists = true
	created.Info = solana.AccountInfo{
		Data:     make([]byte, size),
		Owner:    append(ed25519.PublicKey(nil), owner...),
		Lamports: lamports,
	}
	return nil
}

type accountSnapshot struct {
	data     []byte
	lamports uint64
}

func snapshot(state []*Account) []accountSnapshot {
	s := make([]accountSnapshot, len(state))
	for i, account := range state {
		s[i] = accountSnapshot{
			data:     append([]byte(nil), account.Info.Data...),
			lamports: account.Info.Lamports,
		}
	}
	return s
}

// checkModifications enforces that a program only writes to writable
// accounts it owns.
func checkModifications(program ed25519.PublicKey, before []accountSnapshot, state []*Account) error {
	for i, account := range state {
		if bytes.Equal(before[i].data, account.Info.Data) && before[i].lamports == account.Info.Lamports {
			continue
		}

		if !account.IsWritable {
			return errors.New("ReadonlyDataModified")
		}
		if !bytes.Equal(account.Info.Owner, program) {
			return errors.New(string(solana.InstructionErrorExternalAccountDataModified))
		}
	}

	return nil
}

func mustDecode(s string) ed25519.PublicKey {
	b, err := base58.Decode(s)
	if err != nil {
		panic(err)
	}
	return b
}
