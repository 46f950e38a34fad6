package types

import (
	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/math"
)

// StateDB is the ledger the interpreter executes against.
type StateDB interface {
	CreateAccount(common.Address)

	SubBalance(common.Address, *math.BigInt)
	AddBalance(common.Address, *math.BigInt)
	// Retrieve the balance from the given address or 0 if object not found
	GetBalance(common.Address) *math.BigInt

	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64)

	GetCodeHash(common.Address) common.Hash
	GetCode(common.Address) []byte
	SetCode(common.Address, []byte)
	GetCodeSize(common.Address) int

	// GetContract returns the name of the program deployed at the address.
	GetContract(common.Address) string
	SetContract(common.Address, string)

	// GetState retrieves a value from the given account's storage.
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash)

	// Exist reports whether the given account exists in state.
	Exist(common.Address) bool
	// Empty returns whether the given account is empty. Empty
	// is defined according to EIP161 (balance = nonce = code = 0).
	Empty(common.Address) bool

	// RevertToSnapshot reverts all state changes made since the given revision.
	RevertToSnapshot(int)
	// CommitSnapshot keeps the changes made since the given revision and
	// releases the revision.
	CommitSnapshot(int) error
	// Snapshot creates a new revision
	Snapshot() (int, error)

	AddLog(*Log)
	Logs() []*Log

	ForEachStorage(common.Address, func(common.Hash, common.Hash) bool)
	// for debug.
	String() string
}

// StateDBDebug is a StateDB that exposes its account objects directly. Layered
// ledgers are stacks of these.
type StateDBDebug interface {
	StateDB
	GetStateObject(addr common.Address) *StateObject
	SetStateObject(addr common.Address, stateObject *StateObject)
	// LookupState reports whether this ledger itself holds a value for the slot.
	LookupState(addr common.Address, key common.Hash) (common.Hash, bool)
	// Accounts lists the addresses this ledger holds objects or storage for.
	Accounts() []common.Address
}
