package doctree

// Kind identifies one node kind in the rich document tree. The vocabulary is
// closed: decoders drop nodes whose kind they do not recognize instead of
// failing the whole conversion.
type Kind string

const (
	// KindRoot is the document root container.
	KindRoot Kind = "root"
	// KindParagraph is a plain paragraph container.
	KindParagraph Kind = "paragraph"
	// KindHeading is a heading container carrying a "level" attribute.
	KindHeading Kind = "heading"
	// KindBulletList is an unordered list container.
	KindBulletList Kind = "bullet-list"
	// KindOrderedList is an ordered list container carrying a "start" attribute.
	KindOrderedList Kind = "ordered-list"
	// KindListItem is a single bullet or ordered list entry.
	KindListItem Kind = "list-item"
	// KindTaskList is a list container whose items carry checkboxes.
	KindTaskList Kind = "task-list"
	// KindTaskItem is a task entry carrying a "checked" attribute.
	KindTaskItem Kind = "task-item"
	// KindCheckbox is a bare checkbox child some peers nest inside task items
	// instead of setting the item's "checked" attribute.
	KindCheckbox Kind = "checkbox"
	// KindCodeBlock is a fenced code container carrying a "language" attribute.
	KindCodeBlock Kind = "code-block"
	// KindBlockquote is a quoted block container.
	KindBlockquote Kind = "blockquote"
	// KindHorizontalRule is a thematic break.
	KindHorizontalRule Kind = "horizontal-rule"
	// KindHardBreak is an explicit line break inside a paragraph.
	KindHardBreak Kind = "hard-break"
	// KindText is a text run leaf.
	KindText Kind = "text"
)

// MarkType identifies a span-level formatting annotation on a text run.
type MarkType string

const (
	// MarkBold marks strong emphasis.
	MarkBold MarkType = "bold"
	// MarkItalic marks emphasis.
	MarkItalic MarkType = "italic"
	// MarkCode marks inline code.
	MarkCode MarkType = "code"
	// MarkStrike marks struck-through text.
	MarkStrike MarkType = "strike"
	// MarkLink marks a hyperlink and carries an "href" attribute.
	MarkLink MarkType = "link"
)

// Attribute keys used across the node vocabulary.
const (
	AttrLevel    = "level"
	AttrChecked  = "checked"
	AttrLanguage = "language"
	AttrStart    = "start"
	AttrHref     = "href"
)

// Mark is one formatting annotation, optionally carrying attributes.
type Mark struct {
	Type  MarkType
	Attrs map[string]any
}

// Node is one node of the rich document tree. Container kinds use Attrs and
// Children; KindText uses Text and Marks.
type Node struct {
	Kind     Kind
	Attrs    map[string]any
	Children []*Node
	Text     string
	Marks    []Mark
}

// NewContainer returns a container node of the given kind.
func NewContainer(kind Kind, attrs map[string]any, children ...*Node) *Node {
	return &Node{Kind: kind, Attrs: attrs, Children: children}
}

// NewTextRun returns a text run leaf. Duplicate mark types are collapsed so a
// run never carries the same mark twice.
func NewTextRun(content string, marks ...Mark) *Node {
	deduped := make([]Mark, 0, len(marks))
	seen := make(map[MarkType]bool, len(marks))
	for _, mark := range marks {
		if seen[mark.Type] {
			continue
		}
		seen[mark.Type] = true
		deduped = append(deduped, mark)
	}
	return &Node{Kind: KindText, Text: content, Marks: deduped}
}

// EmptyDocument returns the canonical non-empty tree: a root holding exactly
// one empty paragraph, so every document has at least one editable node.
func EmptyDocument() *Node {
	return NewContainer(KindRoot, nil, NewContainer(KindParagraph, nil))
}

// IsKnownKind reports whether kind belongs to the closed node vocabulary.
func IsKnownKind(kind Kind) bool {
	switch kind {
	case KindRoot, KindParagraph, KindHeading, KindBulletList, KindOrderedList,
		KindListItem, KindTaskList, KindTaskItem, KindCheckbox, KindCodeBlock,
		KindBlockquote, KindHorizontalRule, KindHardBreak, KindText:
		return true
	default:
		return false
	}
}

// BoolAttr reads a boolean attribute, reporting whether it was present.
func (n *Node) BoolAttr(key string) (bool, bool) {
	if n == nil || n.Attrs == nil {
		return false, false
	}
	value, ok := n.Attrs[key].(bool)
	if !ok {
		return false, false
	}
	return value, true
}

// IntAttr reads an integer attribute with a fallback default.
func (n *Node) IntAttr(key string, fallback int) int {
	if n == nil || n.Attrs == nil {
		return fallback
	}
	switch value := n.Attrs[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	default:
		return fallback
	}
}

// StringAttr reads a string attribute, returning "" when absent.
func (n *Node) StringAttr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	value, _ := n.Attrs[key].(string)
	return value
}
