package wiki

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	yamlFenceOpen = "```yaml"
	fence         = "```"
)

// extractYAML returns the text between the first ```yaml marker and the
// next ``` fence.
func extractYAML(response string) (string, bool) {
	start := strings.Index(response, yamlFenceOpen)
	if start < 0 {
		return "", false
	}
	rest := response[start+len(yamlFenceOpen):]
	end := strings.Index(rest, fence)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// decodeFenced extracts and parses the fenced YAML block of an LLM response.
func decodeFenced(stage, response string) (any, error) {
	block, ok := extractYAML(response)
	if !ok {
		return nil, &ResponseFormatError{Stage: stage, Reason: "no ```yaml block found"}
	}
	var doc any
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, &ResponseFormatError{Stage: stage, Reason: "invalid YAML", Err: err}
	}
	return doc, nil
}

// parseIndex accepts a YAML integer or a string of the form "<int> # comment".
func parseIndex(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("index %v is not an integer", x)
		}
		return int(x), nil
	case string:
		s := strings.TrimSpace(x)
		if i := strings.IndexByte(s, '#'); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
		n := 0
		for n < len(s) && s[n] >= '0' && s[n] <= '9' {
			n++
		}
		if n == 0 {
			return 0, fmt.Errorf("index %q has no leading number", x)
		}
		idx, err := strconv.Atoi(s[:n])
		if err != nil {
			return 0, fmt.Errorf("index %q: %w", x, err)
		}
		return idx, nil
	default:
		return 0, fmt.Errorf("index has unsupported type %T", v)
	}
}
