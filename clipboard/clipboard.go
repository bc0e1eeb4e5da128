// Package clipboard writes extraction results to the system clipboard.
// A plain-text entry is always written; when the configured output
// format is a rich-text format (HTML, RTF) a matching typed entry is
// added so rich-aware paste targets render the structured form.
package clipboard

import (
	"log"

	xclipboard "golang.design/x/clipboard"
)

// richClasses maps output formats to the four-character pasteboard type
// code used by the darwin rich write path. Formats not listed here are
// carried as plain text only.
var richClasses = map[string]string{
	"html": "HTML",
	"rtf":  "RTF ",
}

// Init prepares the system clipboard. Must be called once before Write.
func Init() error {
	return xclipboard.Init()
}

// The commit paths are package vars so tests can observe which
// representations a Write commits. richCommit's contract is a single
// pasteboard write carrying both the plain string and the typed data.
var (
	richCommit  = writeRich
	plainCommit = func(text string) {
		xclipboard.Write(xclipboard.FmtText, []byte(text))
	}
)

// Write places text on the clipboard. For rich formats both a plain and
// a typed entry are written in one commit; a failed rich write degrades
// to plain text, which is never skipped.
func Write(text, format string) error {
	if class, ok := richClasses[format]; ok {
		if err := richCommit(class, text); err == nil {
			return nil
		} else {
			log.Printf("clipboard: rich %s write failed, falling back to plain text: %v", format, err)
		}
	}
	plainCommit(text)
	return nil
}

// System adapts the package functions to the coordinator's clipboard
// interface.
type System struct{}

func (System) Write(text, format string) error {
	return Write(text, format)
}
