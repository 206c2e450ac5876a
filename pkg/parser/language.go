package parser

import (
	"path/filepath"
	"strings"
)

// Language represents a supported source language for parsing.
type Language int

const (
	// LanguageJavaScript represents JavaScript (.js, .jsx, .mjs, .cjs files).
	// The JavaScript grammar parses JSX without a separate dialect.
	LanguageJavaScript Language = iota
	// LanguageTypeScript represents TypeScript (.ts, .tsx files)
	LanguageTypeScript
	// LanguageUnknown represents an unsupported language
	LanguageUnknown
)

// String returns the string representation of the language.
func (l Language) String() string {
	switch l {
	case LanguageJavaScript:
		return "javascript"
	case LanguageTypeScript:
		return "typescript"
	default:
		return "unknown"
	}
}

// SupportedExtensions is the fixed set of file extensions the analyzer
// accepts, in the order import specifiers are probed against the disk.
var SupportedExtensions = []string{".js", ".jsx", ".ts", ".tsx"}

// DetectLanguage detects the source language from a file path.
// Returns LanguageUnknown if the file extension is not recognized.
func DetectLanguage(filePath string) Language {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	case ".ts", ".mts", ".cts", ".tsx":
		return LanguageTypeScript
	default:
		return LanguageUnknown
	}
}

// IsTSXFile checks if a file path represents a TSX file.
// TSX files use the TypeScript grammar with JSX support enabled.
func IsTSXFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".tsx"
}
