package paygate

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
)

// ParseCallback decodes a raw webhook body into a payload map. The gateway
// delivers either JSON or form-encoded bodies depending on the merchant
// configuration; both normalize to the same map shape. Numbers are kept as
// json.Number so their string form survives canonicalization untouched.
func ParseCallback(body []byte, contentType string) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty callback body")
	}

	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed form body")
		}
		payload := make(map[string]any, len(values))
		for key, vals := range values {
			if len(vals) > 0 {
				payload[key] = vals[0]
			}
		}
		return payload, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed json body")
	}
	return payload, nil
}

// StringField returns the payload value at key coerced to a trimmed string.
// Numeric values stringify in their natural decimal form; absent, empty or
// non-scalar values return "".
func StringField(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
