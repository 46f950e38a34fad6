package types

import "github.com/pkg/errors"

// Ledger errors reported on a CallResult.
var (
	ErrInsufficientBalance  = errors.New("insufficient balance for transfer")
	ErrNoCompatibleContract = errors.New("no contract matches the creation code")
	ErrAccountNotFound      = errors.New("account does not exist")
	ErrAddressCollision     = errors.New("contract address collision")
	ErrDepth                = errors.New("max call depth exceeded")
	ErrExecutionReverted    = errors.New("execution reverted")
)
