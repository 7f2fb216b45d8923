package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

func encode[T any](w http.ResponseWriter, _ *http.Request, status int, v T) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// decode reads a JSON body into T. An empty body decodes to the zero value so
// that missing fields are reported by validation rather than as bad JSON.
func decode[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil && !errors.Is(err, io.EOF) {
		return v, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}
