package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignOrder computes the hex HMAC-SHA256 the gateway attaches to a payment
// callback: the key is the shared secret, the message is "<orderID>|<paymentID>".
func SignOrder(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the expected HMAC.
// Comparison is constant-time.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := SignOrder(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
