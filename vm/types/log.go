package types

import (
	"fmt"

	"github.com/annchain/solinterp/common"
)

// Log is an event emitted by a contract.
type Log struct {
	Address common.Address
	// Topics holds the event selector first unless the event is anonymous, then the indexed arguments.
	Topics []common.Hash
	Data   []byte
}

func (l *Log) String() string {
	return fmt.Sprintf("log(%s, topics=%d, data=%s)", l.Address.Hex(), len(l.Topics), common.ToBriefHex(l.Data, 64))
}
