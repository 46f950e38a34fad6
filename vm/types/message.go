package types

import (
	"fmt"
	"math/big"

	"github.com/annchain/solinterp/common"
)

// Message is one call or creation. A creation has the zero address as To and
// carries the creation code followed by the constructor arguments in Data.
type Message struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
	// Static forbids storage writes for the whole call tree.
	Static bool
	// Delegate, when set, runs the code of that account on To's storage.
	Delegate *common.Address
	// Salt selects the salted creation address scheme.
	Salt *common.Hash
	// Origin is the sender of the top-level transaction.
	Origin common.Address
	Depth  int
}

func (m *Message) IsCreate() bool {
	return m.To == common.ZeroAddress
}

func (m *Message) CallValue() *big.Int {
	if m.Value == nil {
		return new(big.Int)
	}
	return m.Value
}

func (m *Message) String() string {
	kind := "call"
	if m.IsCreate() {
		kind = "create"
	}
	return fmt.Sprintf("%s %s -> %s value=%s data=%s", kind, m.From.TerminalString(), m.To.TerminalString(), m.CallValue(), common.ToBriefHex(m.Data, 20))
}

// CallResult is the outcome of a message. Err is set for ledger failures such as
// ErrInsufficientBalance; Data then is empty and Reverted is true.
type CallResult struct {
	Reverted       bool
	Data           []byte
	CreatedAddress common.Address
	Logs           []*Log
	Err            error
	// Trace is the evaluation trace when tracing is enabled.
	Trace interface{}
}

func (r *CallResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("failed: %v", r.Err)
	}
	if r.Reverted {
		return "reverted: " + common.ToBriefHex(r.Data, 64)
	}
	return "ok: " + common.ToBriefHex(r.Data, 64)
}
