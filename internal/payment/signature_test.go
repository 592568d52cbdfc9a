package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-gateway-secret"

func TestSignOrderDeterministic(t *testing.T) {
	first := SignOrder(testSecret, "order_123", "pay_456")
	second := SignOrder(testSecret, "order_123", "pay_456")

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestSignOrderInputsChangeResult(t *testing.T) {
	base := SignOrder(testSecret, "order_123", "pay_456")

	tests := []struct {
		name      string
		secret    string
		orderID   string
		paymentID string
	}{
		{
			name:      "different secret",
			secret:    "another-secret",
			orderID:   "order_123",
			paymentID: "pay_456",
		},
		{
			name:      "different order id",
			secret:    testSecret,
			orderID:   "order_124",
			paymentID: "pay_456",
		},
		{
			name:      "different payment id",
			secret:    testSecret,
			orderID:   "order_123",
			paymentID: "pay_457",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, SignOrder(tt.secret, tt.orderID, tt.paymentID))
		})
	}
}

func TestVerifySignature(t *testing.T) {
	valid := SignOrder(testSecret, "order_123", "pay_456")

	// Flip a single bit in the first hex digit.
	tampered := []byte(valid)
	if tampered[0] == '0' {
		tampered[0] = '1'
	} else {
		tampered[0] = '0'
	}

	tests := []struct {
		name      string
		signature string
		expected  bool
	}{
		{
			name:      "valid signature",
			signature: valid,
			expected:  true,
		},
		{
			name:      "tampered signature",
			signature: string(tampered),
			expected:  false,
		},
		{
			name:      "empty signature",
			signature: "",
			expected:  false,
		},
		{
			name:      "truncated signature",
			signature: valid[:len(valid)-1],
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VerifySignature(testSecret, "order_123", "pay_456", tt.signature))
		})
	}
}
