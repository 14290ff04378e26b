package post

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeID reads an identifier sent either as a JSON string or as a number.
// null and a missing value decode to "".
func DecodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("decoding id %s: %w", raw, err)
	}
	return n.String(), nil
}
