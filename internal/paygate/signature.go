package paygate

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// signField is stripped from the payload before canonicalization.
const signField = "sign"

// CanonicalMode selects which scalar types participate in the signature
// base string. The gateway's published algorithm reads as string-only, but
// observed traffic signs numeric JSON fields too, so both variants are kept
// as a compatibility allowlist and a match against any configured mode is
// accepted.
type CanonicalMode string

const (
	ModeStringScalars CanonicalMode = "string_scalars"
	ModeAllScalars    CanonicalMode = "all_scalars"
)

// DefaultModes is the trial order for incoming callback verification.
var DefaultModes = []CanonicalMode{ModeAllScalars, ModeStringScalars}

// Canonicalize flattens the payload into the gateway's signature base string:
// top-level keys sorted lexicographically, array-of-object elements walked in
// array order with their own keys sorted, scalar values stringified and
// joined with ":". Empty strings and non-scalar leaves are skipped.
func Canonicalize(payload map[string]any, mode CanonicalMode) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k == signField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tokens []string
	for _, k := range keys {
		switch v := payload[k].(type) {
		case []any:
			for _, elem := range v {
				obj, ok := elem.(map[string]any)
				if !ok {
					continue
				}
				innerKeys := make([]string, 0, len(obj))
				for ik := range obj {
					innerKeys = append(innerKeys, ik)
				}
				sort.Strings(innerKeys)
				for _, ik := range innerKeys {
					if tok, ok := scalarToken(obj[ik], mode); ok {
						tokens = append(tokens, tok)
					}
				}
			}
		default:
			if tok, ok := scalarToken(v, mode); ok {
				tokens = append(tokens, tok)
			}
		}
	}

	return strings.Join(tokens, ":")
}

func scalarToken(v any, mode CanonicalMode) (string, bool) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return "", false
		}
		return val, true
	case json.Number:
		if mode == ModeStringScalars {
			return "", false
		}
		return val.String(), true
	case float64:
		if mode == ModeStringScalars {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		if mode == ModeStringScalars {
			return "", false
		}
		return strconv.Itoa(val), true
	case bool:
		if mode == ModeStringScalars {
			return "", false
		}
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// ComputeSignature hashes the canonical base string plus the shared secret
// and returns the lowercase hex digest.
func ComputeSignature(payload map[string]any, secret string, mode CanonicalMode) string {
	base := Canonicalize(payload, mode) + ":" + secret
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:])
}

// IsValidSignature verifies the incoming signature against every configured
// secret and canonicalization mode, accepting the first match. Comparison is
// constant-time; a length mismatch is an immediate safe rejection.
func IsValidSignature(payload map[string]any, incoming string, secrets []string, modes []CanonicalMode) bool {
	if incoming == "" || len(secrets) == 0 {
		return false
	}
	if len(modes) == 0 {
		modes = DefaultModes
	}
	normalized := []byte(strings.ToLower(incoming))
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		for _, mode := range modes {
			expected := []byte(ComputeSignature(payload, secret, mode))
			if len(expected) != len(normalized) {
				continue
			}
			if subtle.ConstantTimeCompare(expected, normalized) == 1 {
				return true
			}
		}
	}
	return false
}
