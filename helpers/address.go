package helpers

import "strings"

// SplitAddressList splits a combined address header value ("a@x, b <b@y>")
// into individual address strings, dropping empty entries. The result is
// never nil so that it marshals as an empty JSON array.
func SplitAddressList(combined string) []string {
	out := []string{}
	for _, addr := range strings.Split(combined, ", ") {
		if addr == "" {
			continue
		}
		out = append(out, addr)
	}
	return out
}

// SplitLabels splits a comma-separated label header value into trimmed
// labels, dropping empty entries. Never returns nil.
func SplitLabels(combined string) []string {
	out := []string{}
	for _, label := range strings.Split(combined, ",") {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		out = append(out, label)
	}
	return out
}
