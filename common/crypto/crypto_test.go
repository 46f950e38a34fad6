package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/annchain/solinterp/common"
	secp256k1 "github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeccak(t *testing.T) {
	// transfer(address,uint256)
	assert.Equal(t, "a9059cbb", hex.EncodeToString(Keccak256([]byte("transfer(address,uint256)"))[:4]))
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hex.EncodeToString(Keccak256(nil)))
}

func TestCreateAddress(t *testing.T) {
	sender := common.HexToAddress("0x01")
	a0 := CreateAddress(sender, 0)
	a1 := CreateAddress(sender, 1)
	assert.NotEqual(t, a0, a1)
	assert.Equal(t, a0, CreateAddress(sender, 0))
	assert.NotEqual(t, a0, CreateAddress2(sender, common.Hash{}, Keccak256(nil)))
}

func TestEcrecover(t *testing.T) {
	keyBytes, _ := hex.DecodeString("6f6720697320746865206265737420636861696e000000000000000000000000")
	priv, pub := secp256k1.PrivKeyFromBytes(secp256k1.S256(), keyBytes)
	expected := common.BytesToAddress(Keccak256(pub.SerializeUncompressed()[1:])[12:])

	hash := Keccak256([]byte("hello"))
	sig, err := secp256k1.SignCompact(secp256k1.S256(), priv, hash, false)
	require.NoError(t, err)

	got := Ecrecover(hash, sig[0], sig[1:33], sig[33:])
	assert.Equal(t, expected, got)
	assert.Equal(t, common.ZeroAddress, Ecrecover(hash, 29, sig[1:33], sig[33:]))
}
