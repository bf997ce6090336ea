package nearest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format selects how a Result is rendered.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat parses a format name case-insensitively. Blank means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown format %q: must be json or text", s)
}

// ContentType is the MIME type of the rendering.
func (f Format) ContentType() string {
	if f == FormatText {
		return "text/plain; charset=utf-8"
	}
	return "application/json"
}

// Render renders r in format f.
func (r Result) Render(f Format) ([]byte, error) {
	if f == FormatText {
		return []byte(r.Text()), nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return append(data, '\n'), nil
}
