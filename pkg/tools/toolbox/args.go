package toolbox

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ParseArgs flattens a JSON object into Args. String values are kept as is,
// null becomes the empty string and any other value keeps its JSON text.
// Empty input yields empty Args.
func ParseArgs(raw []byte) (Args, error) {
	args := Args{}
	if strings.TrimSpace(string(raw)) == "" {
		return args, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return args, fmt.Errorf("toolbox: arguments are not a JSON object: %w", err)
	}

	for k, v := range obj {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			args[k] = s
			continue
		}
		if string(v) == "null" {
			args[k] = ""
			continue
		}
		args[k] = string(v)
	}

	return args, nil
}

// Keys returns the argument names in sorted order.
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
