package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Response is the JSON envelope printed with --format json.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// emit prints data as JSON, or calls text to print it for humans.
func emit(w io.Writer, format string, data any, text func(io.Writer) error) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(Response{Status: "ok", Data: data}); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return nil
	}
	return text(w)
}
