package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// Signer produces HMAC-SHA256 request signatures
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Canonical encodes params sorted by key, without any existing signature.
// The returned string is exactly what gets signed and sent.
func Canonical(params url.Values) string {
	clean := make(url.Values, len(params))
	for k, v := range params {
		if k == "signature" {
			continue
		}
		clean[k] = v
	}
	return clean.Encode()
}

// Sign returns the hex encoded signature of the canonical query string
func (s *Signer) Sign(params url.Values) string {
	return s.SignPayload(Canonical(params))
}

// SignPayload signs an already encoded payload
func (s *Signer) SignPayload(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
