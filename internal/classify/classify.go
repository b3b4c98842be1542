// Package classify maps a clipboard content snapshot to exactly one item
// category.
//
// Classification is a pure function of the snapshot and runs in three
// phases, each of which wins over every later one:
//
//  1. representation: an explicit web-link representation is a link,
//     whatever its text says;
//  2. extension: a file reference is looked up in a fixed,
//     case-insensitive extension table, falling back to the generic file
//     category;
//  3. text heuristic: plain text scoring two or more distinct code
//     indicators, or containing a fenced code block, is code; anything
//     else is text.
//
// Unrecognized content never produces an error: it resolves to item.File.
package classify

import (
	"bytes"
	"path"
	"strings"

	"go.klb.dev/shotcast/internal/clip"
	"go.klb.dev/shotcast/internal/item"
)

// CodeThreshold is the number of distinct indicators at which text is code.
const CodeThreshold = 2

// codeFence marks a Markdown fenced code block.
const codeFence = "```"

// codeIndicators is the fixed vocabulary scored by the text heuristic.
// Matching is substring-based and case-insensitive.
var codeIndicators = []string{
	"function", "def ", "class ", "import ", "export ",
	"var ", "let ", "const ", "if (", "for (", "while (",
	"{", "}", "[", "]", "//", "/*", "*/", "#include",
	"<?php", "<!doctype", "<html>", "select ", "from ",
	"print(", "console.log", "println!", "fmt.print",
}

// Snapshot is everything the classifier may look at.
type Snapshot struct {
	// Kinds lists the representations available on the clipboard.
	Kinds []clip.Kind
	// Extension is the file extension of a referenced file, without the
	// leading dot. Empty when there is no file reference or it has no
	// extension.
	Extension string
	// Text is the plain-text payload, used only by the heuristic phase.
	Text []byte
}

// SnapshotForFile builds the snapshot for a file reference at p.
func SnapshotForFile(p string) Snapshot {
	return Snapshot{
		Kinds:     []clip.Kind{clip.KindFileURL},
		Extension: strings.TrimPrefix(path.Ext(p), "."),
	}
}

// Classify returns the category of s.
func Classify(s Snapshot) item.Category {
	// Phase 1: representation.
	if clip.Has(s.Kinds, clip.KindURL) {
		return item.Link
	}

	// Phase 2: extension table.
	if clip.Has(s.Kinds, clip.KindFileURL) {
		return ExtensionCategory(s.Extension)
	}

	if clip.Has(s.Kinds, clip.KindImage) {
		return item.Image
	}

	// Phase 3: text heuristic.
	if clip.Has(s.Kinds, clip.KindText) {
		if LooksLikeCode(s.Text) {
			return item.Code
		}
		return item.Text
	}

	return item.File
}

// CodeScore counts how many distinct code indicators occur in text.
func CodeScore(text []byte) int {
	lower := bytes.ToLower(text)
	score := 0
	for _, indicator := range codeIndicators {
		if bytes.Contains(lower, []byte(indicator)) {
			score++
		}
	}
	return score
}

// LooksLikeCode reports whether text scores at least CodeThreshold or
// contains a fenced code block.
func LooksLikeCode(text []byte) bool {
	if bytes.Contains(text, []byte(codeFence)) {
		return true
	}
	return CodeScore(text) >= CodeThreshold
}
