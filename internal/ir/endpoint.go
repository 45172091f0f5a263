package ir

import (
	"fmt"
	"regexp"
	"strings"
)

// endpointPattern matches "<id>", "<id>#in:<port>" and "<id>#out:<port>".
var endpointPattern = regexp.MustCompile(`^([^#\s]+)(?:#(in|out):([^#\s]*))?$`)

// ParseEndpoint parses the endpoint text shared by every model format.
// Ids and ports are returned as text; "5#in:2" yields {Block: "5", Port: "2"}.
func ParseEndpoint(text string) (Endpoint, error) {
	m := endpointPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q, expected \"<id>\" or \"<id>#in:<port>\"", text)
	}
	ep := Endpoint{Block: m[1]}
	if m[2] != "" {
		if m[3] == "" {
			return Endpoint{}, fmt.Errorf("invalid endpoint %q: missing port after %q", text, m[2]+":")
		}
		ep.Port = m[3]
	}
	return ep, nil
}

// String renders the endpoint in destination form.
func (e Endpoint) String() string {
	if e.Port == "" {
		return e.Block
	}
	return e.Block + "#in:" + e.Port
}
