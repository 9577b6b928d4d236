package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	payload := []byte(`{"event":"vehicle.created","data":{"id":1}}`)
	secret := []byte("whsec_test")

	sig := Sign(payload, secret)
	assert.NotEmpty(t, sig)
	assert.True(t, VerifySignature(payload, secret, sig))
}

func TestVerifyRejectsTampering(t *testing.T) {
	payload := []byte(`{"event":"vehicle.created"}`)
	secret := []byte("whsec_test")
	sig := Sign(payload, secret)

	assert.False(t, VerifySignature([]byte(`{"event":"vehicle.deleted"}`), secret, sig))
	assert.False(t, VerifySignature(payload, []byte("other-secret"), sig))
	assert.False(t, VerifySignature(payload, secret, "deadbeef"))
	assert.False(t, VerifySignature(payload, secret, "not-hex"))
	assert.False(t, VerifySignature(payload, secret, ""))
}

func TestSignIsDeterministic(t *testing.T) {
	payload := []byte("payload")
	secret := []byte("secret")
	assert.Equal(t, Sign(payload, secret), Sign(payload, secret))
	assert.NotEqual(t, Sign(payload, secret), Sign(payload, []byte("secret2")))
}
