package service

import (
	"crypto/rand"
	"encoding/base64"
	"io"
)

// purchaseKeyBytes is the entropy of a purchase key; 16 bytes encode to 22
// base64url characters.
const purchaseKeyBytes = 16

// KeySource produces purchase keys.  Production uses crypto/rand; tests
// can substitute a deterministic source.
type KeySource func() (string, error)

// NewPurchaseKey returns a fresh unguessable purchase key.
func NewPurchaseKey() (string, error) {
	return purchaseKeyFrom(rand.Reader)
}

func purchaseKeyFrom(r io.Reader) (string, error) {
	buf := make([]byte, purchaseKeyBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
