package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the hex HMAC-SHA256 of the payload body.
const SignatureHeader = "X-Webhook-Signature"

// Sign returns the hex HMAC-SHA256 signature of payload under secret.
func Sign(payload []byte, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a presented signature against the payload in
// constant time. Consumers must call this before trusting a payload.
func VerifySignature(payload []byte, secret []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}
