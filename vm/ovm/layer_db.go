package ovm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/crypto"
	"github.com/annchain/solinterp/common/math"
	vmtypes "github.com/annchain/solinterp/vm/types"
	"github.com/pkg/errors"
)

// MAX_LAYER leaves room for the bottom layer, the committed layer and one
// checkpoint per call depth.
var MAX_LAYER = vmtypes.DefaultMaxCallDepth + 2

// LayerStateDB is the cascading storage for contracts.
// It consists of multiple layers, each of which represents the result of a contract.
// e.g.
// -.-#-+-#-----	<- Latest changes after contract
// --+-------+--	<- ...
// ----.----.---	<- first contract
// -------------	<- StateDB (bottom)
// When accessing, watch from the top to the bottom.
// Same mechanism as Docker image layers.
// Add a layer each time a new contract is run
type LayerStateDB struct {
	Layers      []vmtypes.StateDBDebug
	activeLayer vmtypes.StateDBDebug
}

func (l *LayerStateDB) GetStateObject(addr common.Address) *vmtypes.StateObject {
	for i := len(l.Layers) - 1; i >= 0; i-- {
		layer := l.Layers[i]
		if so := layer.GetStateObject(addr); so != nil {
			// return a copy in case you need to modify it.
			if i == len(l.Layers)-1 {
				return so
			}
			return so.Copy()
		}
	}
	return nil
}

func (l *LayerStateDB) SetStateObject(addr common.Address, stateObject *vmtypes.StateObject) {
	l.activeLayer.SetStateObject(addr, stateObject)
	stateObject.DirtySO = true
}

func NewLayerDB(baseLayer vmtypes.StateDBDebug) *LayerStateDB {
	return &LayerStateDB{
		Layers:      []vmtypes.StateDBDebug{baseLayer},
		activeLayer: baseLayer,
	}
}

func (l *LayerStateDB) NewLayer() (index int, err error) {
	// add a new memory layer onto the current layer stack
	index = len(l.Layers)
	if index > MAX_LAYER {
		err = errors.New("max layer count reached")
		return
	}
	l.activeLayer = NewMemoryStateDB()
	l.Layers = append(l.Layers, l.activeLayer)
	return
}

func (l *LayerStateDB) String() string {
	buffer := strings.Builder{}
	for i, layer := range l.Layers {
		if i == 0 {
			buffer.WriteString(fmt.Sprintf("Layer BOTTOM\r\n"))
		} else {
			buffer.WriteString(fmt.Sprintf("Layer %d\r\n", i))
		}

		buffer.WriteString(layer.String())
		buffer.WriteString("\r\n")
	}
	return buffer.String()
}

func (l *LayerStateDB) CreateAccount(addr common.Address) {
	if so := l.GetStateObject(addr); so == nil {
		l.activeLayer.CreateAccount(addr)
	}
}

func (l *LayerStateDB) SubBalance(addr common.Address, value *math.BigInt) {
	if so := l.GetStateObject(addr); so != nil {
		so.Balance = new(big.Int).Sub(so.Balance, value.Value)
		// store to this layer
		l.SetStateObject(addr, so)
	}
}

func (l *LayerStateDB) AddBalance(addr common.Address, value *math.BigInt) {
	if so := l.GetStateObject(addr); so != nil {
		so.Balance = new(big.Int).Add(so.Balance, value.Value)
		// store to this layer
		l.SetStateObject(addr, so)
	}
}

func (l *LayerStateDB) GetBalance(addr common.Address) *math.BigInt {
	if so := l.GetStateObject(addr); so != nil {
		return math.NewBigIntFromBigInt(so.Balance)
	}
	return math.NewBigIntFromBigInt(math.Big0)
}

func (l *LayerStateDB) GetNonce(addr common.Address) uint64 {
	if so := l.GetStateObject(addr); so != nil {
		return so.Nonce
	}
	return 0
}

func (l *LayerStateDB) SetNonce(addr common.Address, nonce uint64) {
	if so := l.GetStateObject(addr); so != nil {
		so.Nonce = nonce
		l.SetStateObject(addr, so)
	}
}

func (l *LayerStateDB) GetCodeHash(addr common.Address) common.Hash {
	if so := l.GetStateObject(addr); so != nil {
		return so.CodeHash
	}
	return common.Hash{}
}

func (l *LayerStateDB) GetCode(addr common.Address) []byte {
	if so := l.GetStateObject(addr); so != nil {
		return so.Code
	}
	return nil
}

func (l *LayerStateDB) SetCode(addr common.Address, code []byte) {
	if so := l.GetStateObject(addr); so != nil {
		so.Code = code
		so.CodeHash = crypto.Keccak256Hash(code)
		so.DirtyCode = true
		l.SetStateObject(addr, so)
	}
}

func (l *LayerStateDB) GetCodeSize(addr common.Address) int {
	so := l.GetStateObject(addr)
	if so == nil {
		return 0
	}
	return len(so.Code)
}

func (l *LayerStateDB) GetContract(addr common.Address) string {
	if so := l.GetStateObject(addr); so != nil {
		return so.Contract
	}
	return ""
}

func (l *LayerStateDB) SetContract(addr common.Address, name string) {
	if so := l.GetStateObject(addr); so != nil {
		so.Contract = name
		l.SetStateObject(addr, so)
	}
}

// GetState returns the value from the topmost layer that wrote the slot. A zero
// written on a higher layer hides a non-zero value below it.
func (l *LayerStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	v, _ := l.LookupState(addr, key)
	return v
}

func (l *LayerStateDB) LookupState(addr common.Address, key common.Hash) (common.Hash, bool) {
	for i := len(l.Layers) - 1; i >= 0; i-- {
		if v, ok := l.Layers[i].LookupState(addr, key); ok {
			return v, true
		}
	}
	return common.Hash{}, false
}

func (l *LayerStateDB) SetState(addr common.Address, key common.Hash, value common.Hash) {
	l.activeLayer.SetState(addr, key, value)
}

func (l *LayerStateDB) Exist(addr common.Address) bool {
	so := l.GetStateObject(addr)
	return so != nil
}

func (l *LayerStateDB) Empty(addr common.Address) bool {
	so := l.GetStateObject(addr)
	return so == nil || so.Empty()
}

// RevertToSnapshot drops layer i and everything above it. Writes continue on the
// layer below.
func (l *LayerStateDB) RevertToSnapshot(i int) {
	if i < 1 || i >= len(l.Layers) {
		return
	}
	l.Layers = l.Layers[0:i]
	l.activeLayer = l.Layers[i-1]
}

// Snapshot stacks a new layer; its index is the revision.
func (l *LayerStateDB) Snapshot() (int, error) {
	return l.NewLayer()
}

// CommitSnapshot folds layer i and everything above it into layer i-1, so
// finished calls give their layers back. The bottom layer is never merged into.
func (l *LayerStateDB) CommitSnapshot(i int) error {
	if i < 2 || i >= len(l.Layers) {
		return nil
	}
	for j := i; j < len(l.Layers); j++ {
		if err := l.mergeLayer(i-1, j); err != nil {
			return err
		}
	}
	l.Layers = l.Layers[0:i]
	l.activeLayer = l.Layers[i-1]
	return nil
}

func (l *LayerStateDB) AddLog(log *vmtypes.Log) {
	l.activeLayer.AddLog(log)
}

// Logs lists the surviving logs of every layer in emission order.
func (l *LayerStateDB) Logs() []*vmtypes.Log {
	var logs []*vmtypes.Log
	for _, layer := range l.Layers {
		logs = append(logs, layer.Logs()...)
	}
	return logs
}

// ForEachStorage visits the merged storage of addr in ascending slot order.
func (l *LayerStateDB) ForEachStorage(addr common.Address, f func(common.Hash, common.Hash) bool) {
	merged := vmtypes.NewStorage()
	for _, layer := range l.Layers {
		layer.ForEachStorage(addr, func(k, v common.Hash) bool {
			merged[k] = v
			return true
		})
	}
	for _, k := range merged.SortedKeys() {
		if !f(k, merged[k]) {
			return
		}
	}
}

func (l *LayerStateDB) Accounts() []common.Address {
	seen := make(map[common.Address]struct{})
	for _, layer := range l.Layers {
		for _, a := range layer.Accounts() {
			seen[a] = struct{}{}
		}
	}
	return sortedAddresses(seen)
}

// Fingerprint hashes the msgp serialization of every account and its non-zero
// storage. Two ledgers with the same contents have the same fingerprint no
// matter how their layers are arranged.
func (l *LayerStateDB) Fingerprint() (common.Hash, error) {
	var buf []byte
	for _, addr := range l.Accounts() {
		so := l.GetStateObject(addr)
		storage := vmtypes.NewStorage()
		l.ForEachStorage(addr, func(k, v common.Hash) bool {
			if v != (common.Hash{}) {
				storage[k] = v
			}
			return true
		})
		if so == nil && len(storage) == 0 {
			continue
		}
		buf = append(buf, addr.Bytes[:]...)
		var err error
		if so != nil {
			// bookkeeping fields depend on the layering, not on the contents
			canonical := &vmtypes.StateObject{
				Balance:  so.Balance,
				Nonce:    so.Nonce,
				Code:     so.Code,
				CodeHash: so.CodeHash,
				Contract: so.Contract,
			}
			buf, err = canonical.MarshalMsg(buf)
			if err != nil {
				return common.Hash{}, errors.Wrapf(err, "account %s", addr.Hex())
			}
		}
		buf, err = storage.MarshalMsg(buf)
		if err != nil {
			return common.Hash{}, errors.Wrapf(err, "storage of %s", addr.Hex())
		}
	}
	return crypto.Keccak256Hash(buf), nil
}

// MergeChanges merges all layers that are above the bottom layer to one layer
func (l *LayerStateDB) MergeChanges() error {
	// put all changes to layer #1
	return l.CommitSnapshot(2)
}

func (l *LayerStateDB) mergeLayer(toLayerIndex int, fromLayerIndex int) error {
	toLayer, toOk := l.Layers[toLayerIndex].(*MemoryStateDB)
	fromLayer, fromOk := l.Layers[fromLayerIndex].(*MemoryStateDB)

	if !toOk {
		return errors.Errorf("layer %d does not support merging", toLayerIndex)
	}
	if !fromOk {
		return errors.Errorf("layer %d does not support merging", fromLayerIndex)
	}

	for k, v := range fromLayer.soLedger {
		toLayer.soLedger[k] = v
	}
	for addr, kv := range fromLayer.kvLedger {
		if _, ok := toLayer.kvLedger[addr]; !ok {
			toLayer.kvLedger[addr] = vmtypes.NewStorage()
		}
		for k, v := range kv {
			toLayer.kvLedger[addr][k] = v
		}
	}
	toLayer.logs = append(toLayer.logs, fromLayer.logs...)
	return nil
}

func (l *LayerStateDB) CurrentLayer() int {
	return len(l.Layers) - 1
}
