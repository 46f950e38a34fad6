// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package ovm

import (
	"math/big"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/crypto"
	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/abi"
	"github.com/annchain/solinterp/vm/artifacts"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/infer"
	"github.com/annchain/solinterp/vm/interp"
	"github.com/annchain/solinterp/vm/soltypes"
	vmtypes "github.com/annchain/solinterp/vm/types"
	"github.com/annchain/solinterp/vm/values"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Chain is the ledger state machine: it owns the layered StateDB, the compiled
// contracts and the deployed libraries, and runs every message in a fresh
// interpreter under its own checkpoint.
//
// The Chain is not thread safe. Nested calls recurse through it.
type Chain struct {
	db        *LayerStateDB
	registry  *artifacts.Registry
	libraries map[string]common.Address
	config    *vmtypes.InterpreterConfig
	visitors  []interp.Visitor
}

// NewChain returns an empty ledger able to deploy the contracts of registry.
func NewChain(registry *artifacts.Registry, config *vmtypes.InterpreterConfig, visitors ...interp.Visitor) *Chain {
	if config == nil {
		config = &vmtypes.InterpreterConfig{}
	}
	db := NewLayerDB(NewMemoryStateDB())
	// layer 1 collects the committed changes of top-level messages
	if _, err := db.NewLayer(); err != nil {
		panic(err)
	}
	return &Chain{
		db:        db,
		registry:  registry,
		libraries: map[string]common.Address{},
		config:    config,
		visitors:  visitors,
	}
}

func (c *Chain) StateDB() vmtypes.StateDB { return c.db }

func (c *Chain) Registry() *artifacts.Registry { return c.registry }

// Libraries maps deployed library names to their addresses.
func (c *Chain) Libraries() map[string]common.Address { return c.libraries }

func (c *Chain) Config() *vmtypes.InterpreterConfig { return c.config }

// Fingerprint identifies the ledger contents; see LayerStateDB.Fingerprint.
func (c *Chain) Fingerprint() (common.Hash, error) { return c.db.Fingerprint() }

func (c *Chain) Balance(addr common.Address) *big.Int { return c.db.GetBalance(addr).Value }

func (c *Chain) Storage(addr common.Address, key common.Hash) common.Hash {
	return c.db.GetState(addr, key)
}

// Fund creates addr if needed and credits it with amount.
func (c *Chain) Fund(addr common.Address, amount *big.Int) error {
	c.db.CreateAccount(addr)
	c.db.AddBalance(addr, math.NewBigIntFromBigInt(amount))
	return c.db.MergeChanges()
}

// Create runs a creation message. msg.To must be the zero address and msg.Data
// the linked creation code of a registered contract followed by its ABI encoded
// constructor arguments.
func (c *Chain) Create(msg *vmtypes.Message) (*vmtypes.CallResult, error) {
	if !msg.IsCreate() {
		return nil, errors.Errorf("create message has a destination %s", msg.To.Hex())
	}
	return c.run(msg)
}

// Call runs a message to an existing account.
func (c *Chain) Call(msg *vmtypes.Message) (*vmtypes.CallResult, error) {
	if msg.IsCreate() {
		return nil, errors.New("call message has no destination")
	}
	return c.run(msg)
}

func (c *Chain) run(msg *vmtypes.Message) (*vmtypes.CallResult, error) {
	logs := len(c.db.Logs())
	res, err := c.execute(msg)
	if err != nil {
		logrus.WithFields(logrus.Fields{"msg": msg.String()}).WithError(err).Error("execution aborted")
		return nil, err
	}
	if !res.Reverted {
		res.Logs = c.db.Logs()[logs:]
	}
	if c.config.Debug {
		logrus.WithFields(logrus.Fields{
			"depth":  msg.Depth,
			"msg":    msg.String(),
			"result": res.String(),
		}).Debug("message executed")
	}
	return res, nil
}

func failed(err error) *vmtypes.CallResult {
	return &vmtypes.CallResult{Reverted: true, Err: err}
}

// execute runs msg under a checkpoint. Ledger failures and program failures come
// back as a reverted result; only internal errors are returned as errors. Either
// way the ledger is restored exactly; a successful message folds its checkpoint
// into the enclosing one.
func (c *Chain) execute(msg *vmtypes.Message) (*vmtypes.CallResult, error) {
	db := c.db
	// Fail if we're trying to execute above the call depth limit
	if msg.Depth > c.config.CallDepth() {
		return failed(vmtypes.ErrDepth), nil
	}
	value := msg.CallValue()
	transfers := msg.Delegate == nil && value.Sign() > 0
	if msg.Static && (transfers || msg.IsCreate()) {
		return failed(vmtypes.ErrExecutionReverted), nil
	}
	// Fail if we're trying to transfer more than the available balance
	if transfers && !CanTransfer(db, msg.From, value) {
		return failed(vmtypes.ErrInsufficientBalance), nil
	}

	snapshot, err := db.Snapshot()
	if err != nil {
		logrus.WithError(err).WithField("depth", msg.Depth).Warn("no room for a checkpoint")
		return failed(vmtypes.ErrDepth), nil
	}
	res, err := c.apply(msg, value, transfers)
	if err != nil || res.Reverted {
		db.RevertToSnapshot(snapshot)
		return res, err
	}
	if err := db.CommitSnapshot(snapshot); err != nil {
		return nil, errors.Wrap(err, "committing checkpoint")
	}
	return res, nil
}

// apply performs msg on top of a fresh checkpoint.
func (c *Chain) apply(msg *vmtypes.Message, value *big.Int, transfers bool) (*vmtypes.CallResult, error) {
	db := c.db
	var (
		self  common.Address
		def   *ast.ContractDefinition
		input []byte
		art   *artifacts.Artifact
	)
	if msg.IsCreate() {
		var ok bool
		art, input, ok = c.registry.ByCreationPrefix(msg.Data, c.libraries)
		if !ok {
			return failed(vmtypes.ErrNoCompatibleContract), nil
		}
		nonce := db.GetNonce(msg.From)
		db.SetNonce(msg.From, nonce+1)
		if msg.Salt != nil {
			self = crypto.CreateAddress2(msg.From, *msg.Salt, crypto.Keccak256(msg.Data))
		} else {
			self = crypto.CreateAddress(msg.From, nonce)
		}
		// Ensure there's no existing contract already at the designated address
		if db.GetNonce(self) != 0 || db.GetCodeSize(self) != 0 {
			return failed(vmtypes.ErrAddressCollision), nil
		}
		def = art.Contract
		db.CreateAccount(self)
		db.SetNonce(self, 1)
	} else {
		if !db.Exist(msg.To) {
			return failed(vmtypes.ErrAccountNotFound), nil
		}
		self = msg.To
		input = msg.Data
		codeAddr := msg.To
		if msg.Delegate != nil {
			codeAddr = *msg.Delegate
		}
		if name := db.GetContract(codeAddr); name != "" {
			a, ok := c.registry.ByName(name)
			if !ok {
				return nil, errors.Errorf("account %s runs unknown contract %s", codeAddr.Hex(), name)
			}
			def = a.Contract
		}
	}

	if transfers {
		Transfer(db, msg.From, self, value)
	}
	if def == nil {
		// plain accounts accept any message
		return &vmtypes.CallResult{}, nil
	}

	in, err := interp.New(c, msg, self, def, c.visitors...)
	if err != nil {
		return nil, err
	}
	var ret []byte
	if msg.IsCreate() {
		err = in.Create(input)
	} else {
		ret, err = in.Call(input)
	}
	if err != nil {
		if re, ok := interp.AsRuntimeError(err); ok {
			return &vmtypes.CallResult{Reverted: true, Data: re.Payload}, nil
		}
		return nil, err
	}
	res := &vmtypes.CallResult{Data: ret}
	if msg.IsCreate() {
		db.SetCode(self, art.Deployed)
		db.SetContract(self, def.Name)
		res.CreatedAddress = self
		res.Data = nil
	}
	if c.config.Trace {
		res.Trace = in.State().Trace
	}
	return res, nil
}

// Deploy creates contract name from the ledger account from, binding the address
// for linking when the contract is a library.
func (c *Chain) Deploy(from common.Address, name string, value *big.Int, args ...values.Value) (common.Address, *vmtypes.CallResult, error) {
	art, ok := c.registry.ByName(name)
	if !ok {
		return common.Address{}, nil, errors.Errorf("unknown contract %s", name)
	}
	code, err := art.Link(c.libraries)
	if err != nil {
		return common.Address{}, nil, err
	}
	var params []*ast.VariableDeclaration
	if ctor := art.Contract.Constructor(); ctor != nil {
		params = ctor.Parameters
	}
	types := make([]soltypes.Type, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	enc, err := abi.Encode(args, types)
	if err != nil {
		return common.Address{}, nil, errors.Wrapf(err, "constructor arguments of %s", name)
	}
	res, err := c.Create(&vmtypes.Message{From: from, Data: append(code, enc...), Value: value})
	if err != nil {
		return common.Address{}, nil, err
	}
	if res.Reverted {
		return common.Address{}, res, nil
	}
	if art.Contract.IsLibrary() {
		c.libraries[name] = res.CreatedAddress
	}
	logrus.WithFields(logrus.Fields{
		"contract": name,
		"address":  res.CreatedAddress.Hex(),
	}).Debug("deployed")
	return res.CreatedAddress, res, nil
}

// DecodeReturn finds the entry point of the contract at to that calldata selects
// and decodes ret with its return types. Getters are probed as well.
func (c *Chain) DecodeReturn(to common.Address, calldata, ret []byte) ([]values.Value, error) {
	name := c.db.GetContract(to)
	art, ok := c.registry.ByName(name)
	if !ok {
		return nil, errors.Errorf("no contract at %s", to.Hex())
	}
	def := art.Contract
	version := c.config.Version
	if def.Unit != nil && def.Unit.Version != "" {
		version = def.Unit.Version
	}
	svc := infer.New(version)
	target := abi.Target{Mem: values.NewMemory()}
	for _, base := range def.Linearized {
		for _, fn := range base.Functions {
			if !fn.IsExternallyVisible() {
				continue
			}
			if _, ok := abi.DecodesWithSelector(svc.Selector(fn), calldata, fn.ParamTypes(), target); ok {
				return abi.Decode(ret, fn.ReturnTypes(), 0, target)
			}
		}
		for _, v := range base.StateVariables {
			if v.Visibility != ast.VisibilityPublic {
				continue
			}
			if _, ok := abi.DecodesWithSelector(svc.GetterSelector(v), calldata, svc.GetterArgs(v), target); ok {
				types, _ := svc.GetterReturns(v)
				return abi.Decode(ret, types, 0, target)
			}
		}
	}
	return nil, errors.Errorf("no entry point of %s matches the call data", name)
}
