package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// DecodeMentions reads a JSON array of mentions.
func DecodeMentions(r io.Reader) ([]Mention, error) {
	var mentions []Mention
	if err := json.NewDecoder(r).Decode(&mentions); err != nil {
		return nil, fmt.Errorf("decoding mentions: %w", err)
	}
	return mentions, nil
}

// DecodeProducts reads a JSON array of catalog products.
func DecodeProducts(r io.Reader) ([]*Product, error) {
	var products []*Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	for _, p := range products {
		if p.Workspaces == nil {
			p.Workspaces = []string{}
		}
		if p.OftenWith == nil {
			p.OftenWith = []Partner{}
		}
	}
	return products, nil
}

// EncodeJSON writes v as indented JSON.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ReadMentionsFile loads a batch input file.
func ReadMentionsFile(path string) ([]Mention, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return DecodeMentions(f)
}

// ReadProductsFile loads a catalog file written by WriteJSONFile.
func ReadProductsFile(path string) ([]*Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return DecodeProducts(f)
}

// WriteJSONFile writes v to path atomically, creating parent directories.
func WriteJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeJSON(tmp, v); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
