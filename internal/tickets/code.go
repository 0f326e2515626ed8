package tickets

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// codeLength is the number of hex characters kept from the order-id digest.
const codeLength = 12

// Code derives the deterministic ticket code for an order: the first 12 hex
// characters of SHA-256 over the order id, uppercased. Possession of the
// order id already implies legitimate access, so the digest is unkeyed; it
// only needs to be non-reversible and recomputable on demand.
func Code(orderID string) string {
	sum := sha256.Sum256([]byte(orderID))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:codeLength])
}

// Validate recomputes the code for orderID and compares it to the presented
// value after uppercasing.
func Validate(orderID, presented string) bool {
	if orderID == "" || presented == "" {
		return false
	}
	return Code(orderID) == strings.ToUpper(strings.TrimSpace(presented))
}

// VerifyURL builds the door-side verification link embedded in the QR code.
func VerifyURL(base, orderID string) string {
	query := url.Values{}
	query.Set("order_id", orderID)
	query.Set("code", Code(orderID))
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return base + separator + query.Encode()
}
