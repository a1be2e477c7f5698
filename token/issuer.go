// Package token issues opaque session tokens. A token is a random string
// with no decodable structure, used solely as a session lookup key.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
)

// Encoding selects the textual representation of issued tokens.
type Encoding string

const (
	EncodingHex    Encoding = "hex"
	EncodingBase62 Encoding = "base62"
)

// minTokenBytes enforces the 256-bit entropy floor.
const minTokenBytes = 32

const base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Issuer generates unguessable opaque tokens from a cryptographically
// secure random source. It holds no state between calls.
type Issuer struct {
	size     int
	encoding Encoding
}

// NewIssuer creates an issuer drawing size random bytes per token.
// size below 32 bytes (256 bits) is rejected.
func NewIssuer(size int, encoding Encoding) (*Issuer, error) {
	if size < minTokenBytes {
		return nil, errors.New("token size below 256-bit minimum")
	}
	switch encoding {
	case EncodingHex, EncodingBase62:
	default:
		return nil, errors.New("unsupported token encoding")
	}
	return &Issuer{size: size, encoding: encoding}, nil
}

// NewDefaultIssuer returns a 32-byte hex issuer.
func NewDefaultIssuer() *Issuer {
	return &Issuer{size: minTokenBytes, encoding: EncodingHex}
}

// Issue returns a freshly generated token. The only failure mode is the
// system random source being unavailable.
func (i *Issuer) Issue() (string, error) {
	raw := make([]byte, i.size)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	switch i.encoding {
	case EncodingBase62:
		return encodeBase62(raw), nil
	default:
		return hex.EncodeToString(raw), nil
	}
}

func encodeBase62(raw []byte) string {
	n := new(big.Int).SetBytes(raw)
	base := big.NewInt(62)
	mod := new(big.Int)

	// 32 bytes encode to at most 43 base62 digits.
	buf := make([]byte, 0, len(raw)*3/2)
	for n.Sign() > 0 {
		n.DivMod(n, base, mod)
		buf = append(buf, base62Alphabet[mod.Int64()])
	}
	// Preserve leading zero bytes so entropy is never silently truncated.
	for _, b := range raw {
		if b != 0 {
			break
		}
		buf = append(buf, base62Alphabet[0])
	}
	if len(buf) == 0 {
		buf = append(buf, base62Alphabet[0])
	}

	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return string(buf)
}
