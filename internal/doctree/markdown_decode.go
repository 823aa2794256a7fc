package doctree

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	gtext "github.com/yuin/goldmark/text"
)

// markdownParser is the shared permissive parser. Tables are deliberately not
// enabled: table syntax degrades to literal paragraph text.
var markdownParser parser.Parser = goldmark.New(
	goldmark.WithExtensions(
		extension.TaskList,
		extension.Strikethrough,
		extension.Linkify,
	),
).Parser()

// DecodeMarkdown parses markdown into a rich document tree. The parser is
// permissive by construction: unparseable spans become literal text and the
// function never fails. Empty or whitespace-only input yields the canonical
// single empty paragraph.
func DecodeMarkdown(markdown string) *Node {
	if strings.TrimSpace(markdown) == "" {
		return EmptyDocument()
	}
	source := []byte(markdown)
	document := markdownParser.Parse(gtext.NewReader(source))

	root := NewContainer(KindRoot, nil)
	root.Children = decodeBlocks(document, source)
	if len(root.Children) == 0 {
		return EmptyDocument()
	}
	return root
}

func decodeBlocks(parent ast.Node, source []byte) []*Node {
	blocks := make([]*Node, 0, parent.ChildCount())
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		if converted := decodeBlock(child, source); converted != nil {
			blocks = append(blocks, converted)
		}
	}
	return blocks
}

func decodeBlock(node ast.Node, source []byte) *Node {
	switch block := node.(type) {
	case *ast.Paragraph:
		return NewContainer(KindParagraph, nil, decodeInlines(block, source)...)
	case *ast.TextBlock:
		return NewContainer(KindParagraph, nil, decodeInlines(block, source)...)
	case *ast.Heading:
		level := block.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		attrs := map[string]any{AttrLevel: level}
		return NewContainer(KindHeading, attrs, decodeInlines(block, source)...)
	case *ast.Blockquote:
		return NewContainer(KindBlockquote, nil, decodeBlocks(block, source)...)
	case *ast.List:
		return decodeList(block, source)
	case *ast.FencedCodeBlock:
		var attrs map[string]any
		if language := block.Language(source); len(language) > 0 {
			attrs = map[string]any{AttrLanguage: string(language)}
		}
		return NewContainer(KindCodeBlock, attrs, NewTextRun(blockLines(block, source)))
	case *ast.CodeBlock:
		return NewContainer(KindCodeBlock, nil, NewTextRun(blockLines(block, source)))
	case *ast.ThematicBreak:
		return NewContainer(KindHorizontalRule, nil)
	case *ast.HTMLBlock:
		literal := strings.TrimRight(blockLines(block, source), "\n")
		if literal == "" {
			return nil
		}
		return NewContainer(KindParagraph, nil, NewTextRun(literal))
	default:
		return nil
	}
}

func decodeList(list *ast.List, source []byte) *Node {
	items := make([]*Node, 0, list.ChildCount())
	hasTaskItem := false
	for child := list.FirstChild(); child != nil; child = child.NextSibling() {
		item := decodeListItem(child, source)
		if item.Kind == KindTaskItem {
			hasTaskItem = true
		}
		items = append(items, item)
	}

	kind := KindBulletList
	var attrs map[string]any
	switch {
	case hasTaskItem:
		kind = KindTaskList
	case list.IsOrdered():
		kind = KindOrderedList
		start := list.Start
		if start <= 0 {
			start = 1
		}
		attrs = map[string]any{AttrStart: start}
	}
	return NewContainer(kind, attrs, items...)
}

func decodeListItem(listItem ast.Node, source []byte) *Node {
	checked, hasCheckbox := false, false
	if firstBlock := listItem.FirstChild(); firstBlock != nil {
		if checkbox, ok := firstBlock.FirstChild().(*east.TaskCheckBox); ok {
			hasCheckbox = true
			checked = checkbox.IsChecked
		}
	}

	item := NewContainer(KindListItem, nil, decodeBlocks(listItem, source)...)
	if hasCheckbox {
		item.Kind = KindTaskItem
		item.Attrs = map[string]any{AttrChecked: checked}
		trimLeadingSpace(item)
	}
	return item
}

// trimLeadingSpace drops the space separating a task checkbox from the text
// that follows it.
func trimLeadingSpace(item *Node) {
	if len(item.Children) == 0 {
		return
	}
	block := item.Children[0]
	if block.Kind != KindParagraph || len(block.Children) == 0 {
		return
	}
	if run := block.Children[0]; run.Kind == KindText {
		run.Text = strings.TrimPrefix(run.Text, " ")
	}
}

func decodeInlines(parent ast.Node, source []byte) []*Node {
	return decodeInlineChildren(parent, source, nil)
}

func decodeInlineChildren(parent ast.Node, source []byte, marks []Mark) []*Node {
	runs := make([]*Node, 0, parent.ChildCount())
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		runs = append(runs, decodeInline(child, source, marks)...)
	}
	return runs
}

func decodeInline(node ast.Node, source []byte, marks []Mark) []*Node {
	switch inline := node.(type) {
	case *ast.Text:
		runs := make([]*Node, 0, 2)
		if content := string(inline.Segment.Value(source)); content != "" {
			runs = append(runs, NewTextRun(content, marks...))
		}
		if inline.HardLineBreak() {
			runs = append(runs, NewContainer(KindHardBreak, nil))
		} else if inline.SoftLineBreak() {
			// Soft breaks normalize to a single space.
			runs = append(runs, NewTextRun(" ", marks...))
		}
		return runs
	case *ast.String:
		return []*Node{NewTextRun(string(inline.Value), marks...)}
	case *ast.Emphasis:
		mark := Mark{Type: MarkItalic}
		if inline.Level >= 2 {
			mark = Mark{Type: MarkBold}
		}
		return decodeInlineChildren(inline, source, withMark(marks, mark))
	case *ast.CodeSpan:
		var literal strings.Builder
		for child := inline.FirstChild(); child != nil; child = child.NextSibling() {
			if segment, ok := child.(*ast.Text); ok {
				literal.Write(segment.Segment.Value(source))
			}
		}
		return []*Node{NewTextRun(literal.String(), withMark(marks, Mark{Type: MarkCode})...)}
	case *east.Strikethrough:
		return decodeInlineChildren(inline, source, withMark(marks, Mark{Type: MarkStrike}))
	case *ast.Link:
		mark := Mark{Type: MarkLink, Attrs: map[string]any{AttrHref: string(inline.Destination)}}
		return decodeInlineChildren(inline, source, withMark(marks, mark))
	case *ast.AutoLink:
		target := string(inline.URL(source))
		mark := Mark{Type: MarkLink, Attrs: map[string]any{AttrHref: target}}
		return []*Node{NewTextRun(target, withMark(marks, mark)...)}
	case *east.TaskCheckBox:
		// Captured at the list-item level.
		return nil
	case *ast.RawHTML:
		var literal strings.Builder
		for i := 0; i < inline.Segments.Len(); i++ {
			segment := inline.Segments.At(i)
			literal.Write(segment.Value(source))
		}
		return []*Node{NewTextRun(literal.String(), marks...)}
	default:
		// Unrecognized inline constructs degrade to their literal child text.
		return decodeInlineChildren(node, source, marks)
	}
}

func withMark(marks []Mark, mark Mark) []Mark {
	next := make([]Mark, 0, len(marks)+1)
	next = append(next, marks...)
	return append(next, mark)
}

func blockLines(node ast.Node, source []byte) string {
	var content strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		content.Write(line.Value(source))
	}
	return strings.TrimSuffix(content.String(), "\n")
}
