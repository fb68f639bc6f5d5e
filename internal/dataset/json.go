package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pbaille/ulasan/internal/domain"
)

// WriteJSON writes d as an indented JSON array
func WriteJSON(path string, d domain.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json: %w", err)
	}
	defer f.Close()

	if err := EncodeJSON(f, d); err != nil {
		return err
	}
	return f.Close()
}

// EncodeJSON keeps non-ASCII text and HTML characters as written
func EncodeJSON(w io.Writer, d domain.Dataset) error {
	if d == nil {
		d = domain.Dataset{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
