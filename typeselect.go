package ftp

import "strings"

// TransferType selects the representation type negotiated over TYPE before
// a data transfer.
type TransferType int

const (
	// TypeAuto picks TypeBinary or TypeTextual per file name, using the
	// recognizer set with WithTextualRecognizer or else the built-in
	// extension table.
	TypeAuto TransferType = iota
	TypeBinary
	TypeTextual
)

// defaultTextualExtensions is the built-in recognizer consulted by
// TypeAuto, grounded in the common text file extensions shipped by
// reference FTP clients.
var defaultTextualExtensions = map[string]bool{
	".txt": true, ".text": true, ".htm": true, ".html": true,
	".xml": true, ".csv": true, ".log": true, ".ini": true,
	".cfg": true, ".conf": true, ".md": true, ".json": true,
	".yaml": true, ".yml": true, ".sql": true, ".sh": true,
	".bat": true, ".cmd": true, ".c": true, ".h": true,
	".java": true, ".go": true, ".py": true, ".js": true, ".css": true,
}

// resolveType picks the wire TYPE to send for a AUTO-typed transfer, using
// recognizer if non-nil, else the built-in extension table.
func resolveType(t TransferType, name string, recognizer func(name string) bool) TransferType {
	if t != TypeAuto {
		return t
	}
	if recognizer != nil {
		if recognizer(name) {
			return TypeTextual
		}
		return TypeBinary
	}
	ext := strings.ToLower(extOf(name))
	if defaultTextualExtensions[ext] {
		return TypeTextual
	}
	return TypeBinary
}

func extOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i:]
}

// wireTypeCommand returns the TYPE argument to send for t ("I" for binary,
// "A" for ASCII/textual). TypeAuto must be resolved via resolveType first.
func wireTypeCommand(t TransferType) string {
	if t == TypeTextual {
		return "A"
	}
	return "I"
}
