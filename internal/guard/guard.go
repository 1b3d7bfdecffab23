// Package guard detects programmatic-syntax leakage in model output. The
// live endpoint is expected to speak plain content and structured function
// calls only; code fences, interpreter calls and HTML tags in a turn or a
// tool-call frame indicate the model has slipped into code mode and must be
// steered back with a corrective message instead of being executed.
package guard

import (
	"encoding/json"
	"strings"
)

// markers are matched case-insensitively as plain substrings against the
// serialized form of the payload under inspection.
var markers = []string{
	"```python",
	"```tool_code",
	"```html",
	"<!doctype html",
	"<script",
	"print(",
	"exec(",
	"eval(",
}

// Scan reports the first disallowed marker found in s.
func Scan(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return m, true
		}
	}
	return "", false
}

// ScanJSON serializes v and scans the result. Values that fail to serialize
// are treated as clean; the caller's own encoding will surface the error.
func ScanJSON(v any) (string, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return Scan(string(data))
}
