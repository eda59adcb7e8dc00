package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// MaxBodyBytes bounds the size of a pasted deck list.
const MaxBodyBytes = 1 << 20

// DecklistRequest is the JSON body of the parse and price endpoints.
type DecklistRequest struct {
	Decklist string `json:"decklist"`
}

// readDecklist returns the deck list text of r. JSON bodies carry it in the
// "decklist" field; any other body is taken as the plain text list.
func readDecklist(w http.ResponseWriter, r *http.Request) (string, error) {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer func() { _ = body.Close() }()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req DecklistRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return "", nil
			}
			return "", fmt.Errorf("invalid request body: %w", err)
		}
		return req.Decklist, nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}
	return string(data), nil
}
