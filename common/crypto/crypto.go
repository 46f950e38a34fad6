package crypto

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/annchain/solinterp/common"
	secp256k1 "github.com/btcsuite/btcd/btcec"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

// Keccak256 calculates and returns the Keccak256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates and returns the Keccak256 hash of the input data,
// converting it to an internal Hash data structure.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	h.SetBytes(Keccak256(data...))
	return h
}

func Sha256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func Ripemd160(data []byte) []byte {
	hasher := ripemd160.New()
	hasher.Write(data)
	return hasher.Sum(nil)
}

// CreateAddress creates a contract address given the sender bytes and the nonce
func CreateAddress(b common.Address, nonce uint64) common.Address {
	bs := make([]byte, 8)
	binary.LittleEndian.PutUint64(bs, nonce)
	return common.BytesToAddress(Keccak256([]byte{0xff}, b.Bytes[:], bs)[12:])
}

// CreateAddress2 creates a contract address given the address bytes, initial
// contract code hash and a salt.
func CreateAddress2(b common.Address, salt common.Hash, inithash []byte) common.Address {
	return common.BytesToAddress(Keccak256([]byte{0xff}, b.Bytes[:], salt.Bytes[:], inithash)[12:])
}

// Ecrecover returns the address of the key that produced the (v, r, s) signature over hash.
// The zero address is returned for malformed signatures.
func Ecrecover(hash []byte, v byte, r, s []byte) common.Address {
	if v != 27 && v != 28 {
		return common.ZeroAddress
	}
	sig := make([]byte, 65)
	sig[0] = v
	copy(sig[1:33], common.LeftPadBytes(r, 32))
	copy(sig[33:], common.LeftPadBytes(s, 32))
	pub, _, err := secp256k1.RecoverCompact(secp256k1.S256(), sig, hash)
	if err != nil {
		return common.ZeroAddress
	}
	return common.BytesToAddress(Keccak256(pub.SerializeUncompressed()[1:])[12:])
}
