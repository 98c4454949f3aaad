package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Number is a numeric-looking field kept in its textual form. It decodes from both JSON
// strings and JSON numbers because older exports wrote either.
type Number string

// String returns the textual value.
func (n Number) String() string {
	return string(n)
}

// Int parses the value as a base-10 integer.
func (n Number) Int() (int, error) {
	return strconv.Atoi(string(n))
}

func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(n))
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("number: %w", err)
	}
	*n = Number(num.String())
	return nil
}

func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("number: expected scalar at line %d", node.Line)
	}
	*n = Number(node.Value)
	return nil
}
