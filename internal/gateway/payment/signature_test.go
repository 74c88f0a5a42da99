package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	const secret = "test-secret"

	sig := Sign(secret, "ord_1", "pay_1")

	assert.True(t, VerifySignature(secret, "ord_1", "pay_1", sig))
	assert.False(t, VerifySignature(secret, "ord_1", "pay_1", sig+"00"), "tampered signature")
	assert.False(t, VerifySignature(secret, "ord_2", "pay_1", sig), "different order")
	assert.False(t, VerifySignature(secret, "ord_1", "pay_2", sig), "different payment")
	assert.False(t, VerifySignature("other-secret", "ord_1", "pay_1", sig), "wrong secret")
	assert.False(t, VerifySignature(secret, "ord_1", "pay_1", ""), "empty signature")
}

func TestSignIsDeterministic(t *testing.T) {
	assert.Equal(t, Sign("s", "a", "b"), Sign("s", "a", "b"))
	assert.NotEqual(t, Sign("s", "a", "b"), Sign("s", "ab", ""), "separator prevents ambiguity")
}
