package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"sitechat-backend/internal/models"
)

// Request bodies above this size are rejected.
const maxBodyBytes = 1 << 20

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code string) models.ErrorResponse {
	return models.ErrorResponse{Error: code}
}

// decodeBody decodes a JSON body into dst. An empty body leaves dst at its
// zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
