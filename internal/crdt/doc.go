package crdt

import (
	"sort"

	"github.com/lumen-notes/lumen/backend/internal/doctree"
)

// TypeText is the element type of a text leaf in the engine tree.
const TypeText = "text"

// Element models one node of the engine's native tree. Element nodes carry
// Type, Attrs and Children; text leaves use TypeText with Text and Format,
// where Format keys formatting attributes by mark type.
type Element struct {
	Type     string                    `json:"type"`
	Attrs    map[string]any            `json:"attrs,omitempty"`
	Text     string                    `json:"text,omitempty"`
	Format   map[string]map[string]any `json:"format,omitempty"`
	Children []*Element                `json:"children,omitempty"`
}

// Doc is the engine-facing document: an ordered fragment of root elements.
// Insertion order is the only ordering signal.
type Doc struct {
	Children []*Element `json:"children"`
}

// elementTypeByKind maps tree node kinds onto engine element types. The table
// is the single dispatch point for both directions; kinds or types outside it
// fall through to the drop case.
var elementTypeByKind = map[doctree.Kind]string{
	doctree.KindParagraph:      "paragraph",
	doctree.KindHeading:        "heading",
	doctree.KindBulletList:     "bulletList",
	doctree.KindOrderedList:    "orderedList",
	doctree.KindListItem:       "listItem",
	doctree.KindTaskList:       "taskList",
	doctree.KindTaskItem:       "taskItem",
	doctree.KindCheckbox:       "checkbox",
	doctree.KindCodeBlock:      "codeBlock",
	doctree.KindBlockquote:     "blockquote",
	doctree.KindHorizontalRule: "horizontalRule",
	doctree.KindHardBreak:      "hardBreak",
}

var kindByElementType = func() map[string]doctree.Kind {
	inverse := make(map[string]doctree.Kind, len(elementTypeByKind))
	for kind, elementType := range elementTypeByKind {
		inverse[elementType] = kind
	}
	return inverse
}()

// EncodeTree converts a rich document tree into the engine document. Text
// runs become text leaves whose marks map to per-leaf format attributes;
// container attributes copy over with nil values omitted, since the engine
// does not model absent versus null.
func EncodeTree(tree *doctree.Node) *Doc {
	if tree == nil {
		tree = doctree.EmptyDocument()
	}
	return &Doc{Children: encodeChildren(tree.Children)}
}

func encodeChildren(nodes []*doctree.Node) []*Element {
	elements := make([]*Element, 0, len(nodes))
	for _, node := range nodes {
		if element := encodeNode(node); element != nil {
			elements = append(elements, element)
		}
	}
	return elements
}

func encodeNode(node *doctree.Node) *Element {
	if node == nil {
		return nil
	}
	if node.Kind == doctree.KindText {
		return encodeTextRun(node)
	}
	elementType, ok := elementTypeByKind[node.Kind]
	if !ok {
		return nil
	}
	return &Element{
		Type:     elementType,
		Attrs:    copyAttrs(node.Attrs),
		Children: encodeChildren(node.Children),
	}
}

func encodeTextRun(run *doctree.Node) *Element {
	leaf := &Element{Type: TypeText, Text: run.Text}
	if len(run.Marks) == 0 {
		return leaf
	}
	leaf.Format = make(map[string]map[string]any, len(run.Marks))
	for _, mark := range run.Marks {
		attrs := copyAttrs(mark.Attrs)
		if attrs == nil {
			// Empty marker: the mark is present but carries no attributes.
			attrs = map[string]any{}
		}
		leaf.Format[string(mark.Type)] = attrs
	}
	return leaf
}

// DecodeDoc converts an engine document back into a rich document tree. Text
// leaf format keys re-expand to marks in a stable order. Elements of an
// unrecognized type are dropped together with their subtree; decoding never
// fails. An empty document decodes to the canonical single empty paragraph.
func DecodeDoc(doc *Doc) *doctree.Node {
	if doc == nil || len(doc.Children) == 0 {
		return doctree.EmptyDocument()
	}
	root := doctree.NewContainer(doctree.KindRoot, nil)
	root.Children = decodeChildren(doc.Children)
	if len(root.Children) == 0 {
		return doctree.EmptyDocument()
	}
	return root
}

func decodeChildren(elements []*Element) []*doctree.Node {
	nodes := make([]*doctree.Node, 0, len(elements))
	for _, element := range elements {
		if node := decodeElement(element); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func decodeElement(element *Element) *doctree.Node {
	if element == nil {
		return nil
	}
	if element.Type == TypeText {
		return decodeTextLeaf(element)
	}
	kind, ok := kindByElementType[element.Type]
	if !ok {
		return nil
	}
	node := doctree.NewContainer(kind, copyAttrs(element.Attrs))
	node.Children = decodeChildren(element.Children)
	return node
}

func decodeTextLeaf(leaf *Element) *doctree.Node {
	if len(leaf.Format) == 0 {
		return doctree.NewTextRun(leaf.Text)
	}
	markTypes := make([]string, 0, len(leaf.Format))
	for markType := range leaf.Format {
		markTypes = append(markTypes, markType)
	}
	sort.Strings(markTypes)

	marks := make([]doctree.Mark, 0, len(markTypes))
	for _, markType := range markTypes {
		mark := doctree.Mark{Type: doctree.MarkType(markType)}
		if attrs := copyAttrs(leaf.Format[markType]); attrs != nil {
			mark.Attrs = attrs
		}
		marks = append(marks, mark)
	}
	return doctree.NewTextRun(leaf.Text, marks...)
}

func copyAttrs(attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	copied := make(map[string]any, len(attrs))
	for key, value := range attrs {
		if value == nil {
			continue
		}
		copied[key] = value
	}
	if len(copied) == 0 {
		return nil
	}
	return copied
}
