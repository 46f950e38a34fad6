package ovm

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/crypto"
	"github.com/annchain/solinterp/common/math"
	vmtypes "github.com/annchain/solinterp/vm/types"
)

type MemoryStateDB struct {
	soLedger map[common.Address]*vmtypes.StateObject
	kvLedger map[common.Address]vmtypes.Storage
	logs     []*vmtypes.Log
}

func (m *MemoryStateDB) GetStateObject(addr common.Address) *vmtypes.StateObject {
	if v, ok := m.soLedger[addr]; ok {
		return v
	}
	return nil
}

func (m *MemoryStateDB) SetStateObject(addr common.Address, stateObject *vmtypes.StateObject) {
	m.soLedger[addr] = stateObject
}

func NewMemoryStateDB() *MemoryStateDB {
	return &MemoryStateDB{
		soLedger: make(map[common.Address]*vmtypes.StateObject),
		kvLedger: make(map[common.Address]vmtypes.Storage),
	}
}

func (m *MemoryStateDB) CreateAccount(addr common.Address) {
	if _, ok := m.soLedger[addr]; !ok {
		m.soLedger[addr] = vmtypes.NewStateObject()
	}
}

func (m *MemoryStateDB) SubBalance(addr common.Address, v *math.BigInt) {
	if so, ok := m.soLedger[addr]; ok {
		so.Balance = new(big.Int).Sub(so.Balance, v.Value)
	}
}

func (m *MemoryStateDB) AddBalance(addr common.Address, v *math.BigInt) {
	if so, ok := m.soLedger[addr]; ok {
		so.Balance = new(big.Int).Add(so.Balance, v.Value)
	}
}

func (m *MemoryStateDB) GetBalance(addr common.Address) *math.BigInt {
	if v, ok := m.soLedger[addr]; ok {
		return math.NewBigIntFromBigInt(v.Balance)
	}
	return math.NewBigIntFromBigInt(math.Big0)
}

func (m *MemoryStateDB) GetNonce(addr common.Address) uint64 {
	if v, ok := m.soLedger[addr]; ok {
		return v.Nonce
	}
	return 0
}

func (m *MemoryStateDB) SetNonce(addr common.Address, nonce uint64) {
	if v, ok := m.soLedger[addr]; ok {
		v.Nonce = nonce
	}
}

func (m *MemoryStateDB) GetCodeHash(addr common.Address) common.Hash {
	if v, ok := m.soLedger[addr]; ok {
		return v.CodeHash
	}
	return common.Hash{}
}

func (m *MemoryStateDB) GetCode(addr common.Address) []byte {
	if v, ok := m.soLedger[addr]; ok {
		return v.Code
	}
	return nil
}

func (m *MemoryStateDB) SetCode(addr common.Address, code []byte) {
	if v, ok := m.soLedger[addr]; ok {
		v.Code = code
		v.CodeHash = crypto.Keccak256Hash(code)
		v.DirtyCode = true
	}
}

func (m *MemoryStateDB) GetCodeSize(addr common.Address) int {
	if v, ok := m.soLedger[addr]; ok {
		return len(v.Code)
	}
	return 0
}

func (m *MemoryStateDB) GetContract(addr common.Address) string {
	if v, ok := m.soLedger[addr]; ok {
		return v.Contract
	}
	return ""
}

func (m *MemoryStateDB) SetContract(addr common.Address, name string) {
	if v, ok := m.soLedger[addr]; ok {
		v.Contract = name
	}
}

func (m *MemoryStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	v, _ := m.LookupState(addr, key)
	return v
}

func (m *MemoryStateDB) LookupState(addr common.Address, key common.Hash) (common.Hash, bool) {
	if kv, ok := m.kvLedger[addr]; ok {
		if v, ok := kv[key]; ok {
			return v, true
		}
	}
	return common.Hash{}, false
}

func (m *MemoryStateDB) SetState(addr common.Address, key common.Hash, value common.Hash) {
	if _, ok := m.kvLedger[addr]; !ok {
		m.kvLedger[addr] = vmtypes.NewStorage()
	}
	m.kvLedger[addr][key] = value
}

func (m *MemoryStateDB) Exist(addr common.Address) bool {
	_, ok := m.soLedger[addr]
	return ok
}

func (m *MemoryStateDB) Empty(addr common.Address) bool {
	so, ok := m.soLedger[addr]
	return !ok || so.Empty()
}

// RevertToSnapshot is a no-op: a single memory layer has no revisions. Wrap it
// in a LayerStateDB to get checkpoints.
func (m *MemoryStateDB) RevertToSnapshot(int) {}

func (m *MemoryStateDB) CommitSnapshot(int) error { return nil }

func (m *MemoryStateDB) Snapshot() (int, error) {
	return 0, nil
}

func (m *MemoryStateDB) AddLog(log *vmtypes.Log) {
	m.logs = append(m.logs, log)
}

func (m *MemoryStateDB) Logs() []*vmtypes.Log {
	return m.logs
}

func (m *MemoryStateDB) ForEachStorage(addr common.Address, cb func(key, value common.Hash) bool) {
	kv, ok := m.kvLedger[addr]
	if !ok {
		return
	}
	for _, k := range kv.SortedKeys() {
		if !cb(k, kv[k]) {
			return
		}
	}
}

func (m *MemoryStateDB) Accounts() []common.Address {
	seen := make(map[common.Address]struct{})
	for k := range m.soLedger {
		seen[k] = struct{}{}
	}
	for k := range m.kvLedger {
		seen[k] = struct{}{}
	}
	return sortedAddresses(seen)
}

func sortedAddresses(set map[common.Address]struct{}) []common.Address {
	addrs := make([]common.Address, 0, len(set))
	for k := range set {
		addrs = append(addrs, k)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i].Bytes[:], addrs[j].Bytes[:]) < 0
	})
	return addrs
}

func (m *MemoryStateDB) String() string {
	b := strings.Builder{}

	for _, k := range m.Accounts() {
		if v, ok := m.soLedger[k]; ok {
			b.WriteString(fmt.Sprintf("%s: %s\n", k.String(), v))
		}
	}
	for _, k := range m.Accounts() {
		v, ok := m.kvLedger[k]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("%s: -->\n", k.String()))
		for _, key := range v.SortedKeys() {
			b.WriteString(fmt.Sprintf("-->  %s: %s\n", key.Hex(), v[key].Hex()))
		}
	}
	return b.String()
}
