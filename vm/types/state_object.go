package types

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/annchain/solinterp/common"
	"github.com/tinylib/msgp/msgp"
)

//go:generate msgp

type Storage map[common.Hash]common.Hash

//msgp:tuple StateObject
type StateObject struct {
	Balance  *big.Int
	Nonce    uint64
	Code     []byte
	CodeHash common.Hash
	// Contract is the name of the program deployed at this account, empty for plain accounts.
	Contract  string
	Version   int
	DirtyCode bool
	DirtySO   bool
}

func (s *StateObject) String() string {
	return fmt.Sprintf("Balance %s Nonce %d CodeLen: %d CodeHash: %s Contract: %s Version: %d", s.Balance, s.Nonce, len(s.Code), s.CodeHash.String(), s.Contract, s.Version)
}

// Empty follows EIP161: no balance, no nonce and no code.
func (s *StateObject) Empty() bool {
	return s.Balance.Sign() == 0 && s.Nonce == 0 && len(s.Code) == 0
}

func (s *StateObject) Copy() (d *StateObject) {
	d = NewStateObject()
	d.Balance = new(big.Int).Set(s.Balance)
	d.Nonce = s.Nonce
	d.Code = s.Code
	d.CodeHash = s.CodeHash
	d.Contract = s.Contract
	d.DirtyCode = s.DirtyCode
	d.DirtySO = false
	d.Version = s.Version + 1
	return d
}

func NewStateObject() *StateObject {
	return &StateObject{
		Balance: big.NewInt(0),
	}
}

func NewStorage() Storage {
	a := make(map[common.Hash]common.Hash)
	return a
}

// Copy returns an independent copy of the storage map.
func (s Storage) Copy() Storage {
	d := NewStorage()
	for k, v := range s {
		d[k] = v
	}
	return d
}

// SortedKeys lists the slots in ascending order.
func (s Storage) SortedKeys() common.Hashes {
	keys := make(common.Hashes, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Sort(keys)
	return keys
}

// MarshalMsg implements msgp.Marshaler. Only the consensus fields are serialized.
func (s *StateObject) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, s.Msgsize())
	o = msgp.AppendArrayHeader(o, 5)
	o = msgp.AppendBytes(o, s.Balance.Bytes())
	o = msgp.AppendUint64(o, s.Nonce)
	o = msgp.AppendBytes(o, s.Code)
	o = msgp.AppendBytes(o, s.CodeHash.Bytes[:])
	o = msgp.AppendString(o, s.Contract)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (s *StateObject) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var n uint32
	n, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if n != 5 {
		err = msgp.ArrayError{Wanted: 5, Got: n}
		return
	}
	var balance, hash []byte
	balance, bts, err = msgp.ReadBytesBytes(bts, nil)
	if err != nil {
		return
	}
	s.Balance = new(big.Int).SetBytes(balance)
	s.Nonce, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	s.Code, bts, err = msgp.ReadBytesBytes(bts, nil)
	if err != nil {
		return
	}
	hash, bts, err = msgp.ReadBytesBytes(bts, nil)
	if err != nil {
		return
	}
	s.CodeHash = common.BytesToHash(hash)
	s.Contract, bts, err = msgp.ReadStringBytes(bts)
	if err != nil {
		return
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (s *StateObject) Msgsize() int {
	return 1 + msgp.BytesPrefixSize + 32 + msgp.Uint64Size + msgp.BytesPrefixSize + len(s.Code) +
		msgp.BytesPrefixSize + common.HashLength + msgp.StringPrefixSize + len(s.Contract)
}

// MarshalMsg implements msgp.Marshaler. Slots are written in ascending order and
// zero slots are skipped so that equal storage always serializes identically.
func (s Storage) MarshalMsg(b []byte) (o []byte, err error) {
	keys := s.SortedKeys()
	var live common.Hashes
	for _, k := range keys {
		if !s[k].Empty() {
			live = append(live, k)
		}
	}
	o = msgp.Require(b, s.Msgsize())
	o = msgp.AppendMapHeader(o, uint32(len(live)))
	for _, k := range live {
		v := s[k]
		o = msgp.AppendBytes(o, k.Bytes[:])
		o = msgp.AppendBytes(o, v.Bytes[:])
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (s Storage) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var n uint32
	n, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return
	}
	for i := uint32(0); i < n; i++ {
		var k, v []byte
		k, bts, err = msgp.ReadBytesBytes(bts, nil)
		if err != nil {
			return
		}
		v, bts, err = msgp.ReadBytesBytes(bts, nil)
		if err != nil {
			return
		}
		s[common.BytesToHash(k)] = common.BytesToHash(v)
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (s Storage) Msgsize() int {
	return msgp.MapHeaderSize + len(s)*2*(msgp.BytesPrefixSize+common.HashLength)
}
