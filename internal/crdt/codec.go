package crdt

import "github.com/lumen-notes/lumen/backend/internal/doctree"

// FromMarkdown converts markdown text into an engine document.
func FromMarkdown(markdown string) *Doc {
	return EncodeTree(doctree.DecodeMarkdown(markdown))
}

// ToMarkdown renders an engine document back to markdown text.
func ToMarkdown(doc *Doc) string {
	return doctree.EncodeMarkdown(DecodeDoc(doc))
}
