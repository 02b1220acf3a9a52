package payment

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Checksum builds the PhonePe X-VERIFY value:
// sha256(base64Payload + path + saltKey) + "###" + saltIndex.
// The callback variant uses an empty path.
func Checksum(base64Payload, path, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(base64Payload + path + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex
}

// VerifyChecksum compares in constant time.
func VerifyChecksum(received, base64Payload, saltKey, saltIndex string) bool {
	expected := Checksum(base64Payload, "", saltKey, saltIndex)
	return subtle.ConstantTimeCompare([]byte(received), []byte(expected)) == 1
}
