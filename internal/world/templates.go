package world

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talgya/tradesim/internal/economy"
)

//go:embed templates.schema.json
var templateSchemaJSON string

var templateSchema = jsonschema.MustCompileString("templates.schema.json", templateSchemaJSON)

// LoadCatalog reads a templates JSON file, validates it and returns the
// catalog together with the hex SHA-256 digest of the file.
func LoadCatalog(path string) (*economy.Catalog, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read templates: %w", err)
	}
	cat, err := ParseCatalog(raw)
	if err != nil {
		return nil, "", fmt.Errorf("templates %s: %w", path, err)
	}
	return cat, Digest(raw), nil
}

// ParseCatalog validates raw against the template schema and decodes it.
func ParseCatalog(raw []byte) (*economy.Catalog, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := templateSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var templates map[string]economy.Template
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return economy.NewCatalog(templates)
}

// Digest returns the hex SHA-256 of b.
func Digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
