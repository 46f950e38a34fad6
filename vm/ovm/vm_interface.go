package ovm

import (
	"math/big"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/vm/interp"
	vmtypes "github.com/annchain/solinterp/vm/types"
	"github.com/annchain/solinterp/vm/values"
)

// VM is the ledger surface a test driver scripts transactions against.
type VM interface {
	// Fund seeds an account with a balance.
	Fund(addr common.Address, amount *big.Int) error

	// Create runs a creation message: the linked creation code of a contract
	// followed by its ABI encoded constructor arguments.
	Create(msg *vmtypes.Message) (*vmtypes.CallResult, error)

	// Call runs a message to an existing account. Program failures come back as
	// a reverted result, ledger failures additionally set Err.
	Call(msg *vmtypes.Message) (*vmtypes.CallResult, error)

	// Deploy creates a registered contract by name and records library addresses for linking.
	Deploy(from common.Address, name string, value *big.Int, args ...values.Value) (common.Address, *vmtypes.CallResult, error)

	// DecodeReturn decodes the return data of a call to the entry point its calldata selects.
	DecodeReturn(to common.Address, calldata, ret []byte) ([]values.Value, error)

	// Fingerprint hashes the ledger contents.
	Fingerprint() (common.Hash, error)
}

var (
	_ VM           = (*Chain)(nil)
	_ interp.World = (*Chain)(nil)
)
