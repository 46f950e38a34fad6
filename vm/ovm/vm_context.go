// Copyright 2016 The go-ethereum Authors
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
	"github.com/annchain/solinterp/common/math"
	vmtypes "github.com/annchain/solinterp/vm/types"
)

// CanTransfer checks whether there are enough funds in the address' account to make a transfer.
func CanTransfer(db vmtypes.StateDB, addr common.Address, amount *big.Int) bool {
	return db.GetBalance(addr).Value.Cmp(amount) >= 0
}

// Transfer subtracts amount from sender and adds amount to recipient using the given Db
func Transfer(db vmtypes.StateDB, sender, recipient common.Address, amount *big.Int) {
	db.SubBalance(sender, math.NewBigIntFromBigInt(amount))
	db.AddBalance(recipient, math.NewBigIntFromBigInt(amount))
}
