package ovm

import (
	"math/big"
	"testing"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/math"
	vmtypes "github.com/annchain/solinterp/vm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(n int64) *math.BigInt { return math.NewBigIntFromBigInt(big.NewInt(n)) }

func TestLayers(t *testing.T) {
	base := NewMemoryStateDB()
	ldb := NewLayerDB(base)

	addr1 := common.HexToAddress("0x01")
	addr2 := common.HexToAddress("0x02")
	addr3 := common.HexToAddress("0x03")

	ldb.CreateAccount(addr1)
	ldb.CreateAccount(addr2)
	ldb.AddBalance(addr1, amount(100))

	_, err := ldb.NewLayer()
	require.NoError(t, err)
	ldb.CreateAccount(addr3)
	ldb.AddBalance(addr1, amount(50))
	ldb.AddBalance(addr2, amount(30))

	_, err = ldb.NewLayer()
	require.NoError(t, err)
	ldb.SetNonce(addr3, 1)
	ldb.SubBalance(addr2, amount(10))

	assert.Equal(t, int64(150), ldb.GetBalance(addr1).Value.Int64())
	assert.Equal(t, int64(20), ldb.GetBalance(addr2).Value.Int64())
	assert.Equal(t, uint64(1), ldb.GetNonce(addr3))
	// lower layers keep their own copies
	assert.Equal(t, int64(100), base.GetBalance(addr1).Value.Int64())

	require.NoError(t, ldb.MergeChanges())
	assert.Equal(t, 1, ldb.CurrentLayer())
	assert.Equal(t, int64(150), ldb.GetBalance(addr1).Value.Int64())
	assert.Equal(t, int64(20), ldb.GetBalance(addr2).Value.Int64())
	assert.Equal(t, uint64(1), ldb.GetNonce(addr3))
}

func TestSnapshotRevert(t *testing.T) {
	ldb := NewLayerDB(NewMemoryStateDB())
	_, err := ldb.NewLayer()
	require.NoError(t, err)

	addr := common.HexToAddress("0x0a")
	slot := common.BytesToHash([]byte{1})
	ldb.CreateAccount(addr)
	ldb.SetState(addr, slot, common.BytesToHash([]byte{7}))
	before, err := ldb.Fingerprint()
	require.NoError(t, err)

	outer, err := ldb.Snapshot()
	require.NoError(t, err)
	ldb.SetState(addr, slot, common.BytesToHash([]byte{8}))
	inner, err := ldb.Snapshot()
	require.NoError(t, err)
	ldb.AddBalance(addr, amount(5))
	ldb.AddLog(&vmtypes.Log{Address: addr})
	assert.Len(t, ldb.Logs(), 1)

	ldb.RevertToSnapshot(inner)
	assert.Equal(t, common.BytesToHash([]byte{8}), ldb.GetState(addr, slot))
	assert.Equal(t, int64(0), ldb.GetBalance(addr).Value.Int64())
	assert.Empty(t, ldb.Logs())

	ldb.RevertToSnapshot(outer)
	assert.Equal(t, common.BytesToHash([]byte{7}), ldb.GetState(addr, slot))
	after, err := ldb.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFingerprintIgnoresLayering(t *testing.T) {
	addr := common.HexToAddress("0x0b")
	slot := common.BytesToHash([]byte{2})

	flat := NewLayerDB(NewMemoryStateDB())
	flat.CreateAccount(addr)
	flat.SetState(addr, slot, common.BytesToHash([]byte{3}))

	layered := NewLayerDB(NewMemoryStateDB())
	layered.CreateAccount(addr)
	_, err := layered.Snapshot()
	require.NoError(t, err)
	layered.SetState(addr, slot, common.BytesToHash([]byte{3}))

	a, err := flat.Fingerprint()
	require.NoError(t, err)
	b, err := layered.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	layered.SetState(addr, slot, common.BytesToHash([]byte{4}))
	c, err := layered.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestCommitSnapshotReleasesLayers(t *testing.T) {
	ldb := NewLayerDB(NewMemoryStateDB())
	_, err := ldb.NewLayer()
	require.NoError(t, err)
	addr := common.HexToAddress("0x0c")
	ldb.CreateAccount(addr)

	// far more checkpoints than MAX_LAYER, each one finished before the next
	for i := 0; i < MAX_LAYER+100; i++ {
		s, err := ldb.Snapshot()
		require.NoError(t, err)
		ldb.AddBalance(addr, amount(1))
		require.NoError(t, ldb.CommitSnapshot(s))
	}
	assert.Equal(t, 1, ldb.CurrentLayer())
	assert.Equal(t, int64(MAX_LAYER+100), ldb.GetBalance(addr).Value.Int64())

	// a committed inner checkpoint is still undone by its enclosing one
	outer, err := ldb.Snapshot()
	require.NoError(t, err)
	inner, err := ldb.Snapshot()
	require.NoError(t, err)
	ldb.SetState(addr, common.BytesToHash([]byte{1}), common.BytesToHash([]byte{9}))
	ldb.AddLog(&vmtypes.Log{Address: addr})
	require.NoError(t, ldb.CommitSnapshot(inner))
	assert.Equal(t, outer+1, len(ldb.Layers))
	assert.Len(t, ldb.Logs(), 1)

	ldb.RevertToSnapshot(outer)
	assert.Equal(t, common.Hash{}, ldb.GetState(addr, common.BytesToHash([]byte{1})))
	assert.Empty(t, ldb.Logs())
}

func TestSnapshotLimit(t *testing.T) {
	ldb := NewLayerDB(NewMemoryStateDB())
	var err error
	for err == nil {
		_, err = ldb.Snapshot()
	}
	assert.EqualError(t, err, "max layer count reached")
	assert.Equal(t, MAX_LAYER, ldb.CurrentLayer())
}
