// Package tomlfile loads, edits and rewrites TOML documents addressed by
// key chains such as "project.version".
package tomlfile

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"
)

// Document is a decoded TOML document. Tables are map[string]any.
type Document = map[string]any

// Load reads and decodes the TOML file at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes TOML bytes into a Document.
func Parse(data []byte) (Document, error) {
	doc := Document{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return doc, nil
}

// Encode renders doc as TOML.
func Encode(doc Document) ([]byte, error) {
	var buf bytes.Buffer

	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(false)

	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode TOML: %w", err)
	}

	return buf.Bytes(), nil
}

// Manage loads path, passes the document to fn and writes the result back
// atomically. Nothing is written when fn returns an error.
func Manage(path string, fn func(Document) error) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	doc, err := Load(path)
	if err != nil {
		return err
	}

	if err := fn(doc); err != nil {
		return err
	}

	data, err := Encode(doc)
	if err != nil {
		return err
	}

	if err := renameio.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// ParseKeyChain splits a dotted key such as "tool.poetry.version".
// Empty segments are dropped.
func ParseKeyChain(s string) []string {
	var chain []string

	for _, part := range strings.Split(s, ".") {
		if part = strings.TrimSpace(part); part != "" {
			chain = append(chain, part)
		}
	}

	return chain
}

// ParseValue interprets raw as a TOML value (number, bool, array, quoted
// string, date). Anything that does not parse is taken as a bare string.
func ParseValue(raw string) any {
	var holder struct {
		V any `toml:"v"`
	}

	if err := toml.Unmarshal([]byte("v = "+raw), &holder); err != nil || holder.V == nil {
		return raw
	}

	return holder.V
}
