package tron

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"
)

// mainnet address prefix
const addressPrefix = 0x41

var ErrInvalidAddress = errors.New("invalid tron address")

// Account is locally generated key pair
type Account struct {
	Address    string
	PrivateKey string
}

// Generator creates fresh deposit accounts without network calls
type Generator struct{}

// NewGenerator creates new Generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns new account with base58check address and hex private key
func (g *Generator) Generate() (Account, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return Account{}, fmt.Errorf("generate key: %w", err)
	}

	raw := addressFromPublicKey(priv.PubKey().SerializeUncompressed())

	return Account{
		Address:    EncodeAddress(raw),
		PrivateKey: hex.EncodeToString(priv.Serialize()),
	}, nil
}

// addressFromPublicKey returns 21 byte address of uncompressed public key
func addressFromPublicKey(pub []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	// drop 0x04 marker of uncompressed key
	h.Write(pub[1:])
	sum := h.Sum(nil)

	addr := make([]byte, 0, 21)
	addr = append(addr, addressPrefix)
	return append(addr, sum[len(sum)-20:]...)
}

// EncodeAddress encodes 21 byte address to base58check
func EncodeAddress(raw []byte) string {
	return base58.Encode(append(raw[:len(raw):len(raw)], checksum(raw)...))
}

// DecodeAddress decodes base58check address and returns 21 byte address
func DecodeAddress(addr string) ([]byte, error) {
	b, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(b) != 25 || b[0] != addressPrefix {
		return nil, ErrInvalidAddress
	}
	raw, sum := b[:21], b[21:]
	if !bytes.Equal(checksum(raw), sum) {
		return nil, ErrInvalidAddress
	}
	return raw, nil
}

func checksum(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:4]
}
