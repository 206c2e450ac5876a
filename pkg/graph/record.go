package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// CodeNotFound is the sentinel stored in a record's code field when the
// symbol's definition site could not be sliced from the source.
const CodeNotFound = "implementation not found"

// DependencyRecord is the output entity for one declared symbol.
type DependencyRecord struct {
	// File is the absolute path of the file declaring the symbol.
	File string `json:"file"`
	// Function is the symbol name (functions, classes, and function-valued
	// variables all appear under this key).
	Function string `json:"function"`
	// Dependencies is the sorted list of local dependency names.
	Dependencies []string `json:"dependencies"`
	// DependenciesExternal is the sorted list of external dependency
	// names; present only when external tracking is enabled and non-empty.
	DependenciesExternal []string `json:"dependenciesExternal,omitempty"`
	// Code is the raw source slice of the declaration, or CodeNotFound.
	Code string `json:"code"`
	// FileContent is the full source of the declaring file. Also available
	// through the document-level filesContent list; carried per record for
	// consumers that read nodes in isolation.
	FileContent string `json:"fileContent"`
}

// FileContent pairs a file path with its full source text.
type FileContent struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ContextDocument is the full analysis output: one record per declared
// symbol plus the content of every analyzed file.
type ContextDocument struct {
	Nodes        []DependencyRecord `json:"nodes"`
	FilesContent []FileContent      `json:"filesContent"`
}

// WriteTo serializes the document as indented JSON.
func (d *ContextDocument) WriteTo(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode context document: %w", err)
	}
	return nil
}

// Save writes the document to a file, creating or truncating it.
func (d *ContextDocument) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return d.WriteTo(f)
}

// LoadDocument reads a previously saved context document.
func LoadDocument(path string) (*ContextDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc ContextDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return &doc, nil
}
