package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature checks the signature the provider attaches to a
// checkout callback.  The signed payload is "<order_id>|<payment_id>"
// and the signature is the hex HMAC-SHA256 of that payload under the
// shared secret.  Comparison uses hmac.Equal, so it is constant time.
// A false return is a security-relevant rejection: the callback must
// not be trusted in any part.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return verifyHMAC([]byte(orderID+"|"+paymentID), signature, c.secret)
}

// verifyHMAC validates a hex signature using HMAC-SHA256.
func verifyHMAC(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := mac.Sum(nil)

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, sigBytes)
}

// SignPayload produces the hex HMAC-SHA256 signature of
// "<order_id>|<payment_id>".  It exists for tests and for local
// checkout simulators; the real provider computes this on its side.
func SignPayload(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
