package main

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
)

var stdout io.Writer = os.Stdout

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// finish prints the result and turns a multi-status outcome into exit code 2.
func finish(status int, result any) error {
	if err := writeJSON(result); err != nil {
		return &cliError{code: exitBackend, err: err}
	}
	if status == http.StatusMultiStatus {
		return &cliError{code: exitPartial}
	}
	return nil
}
