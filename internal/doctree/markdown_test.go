package doctree

import (
	"strings"
	"testing"
)

func TestDecodeMarkdownEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n"} {
		tree := DecodeMarkdown(input)
		if tree.Kind != KindRoot {
			t.Fatalf("expected root node, got %s", tree.Kind)
		}
		if len(tree.Children) != 1 {
			t.Fatalf("expected exactly one child for %q, got %d", input, len(tree.Children))
		}
		paragraph := tree.Children[0]
		if paragraph.Kind != KindParagraph {
			t.Fatalf("expected paragraph, got %s", paragraph.Kind)
		}
		if len(paragraph.Children) != 0 {
			t.Fatalf("expected empty paragraph, got %d children", len(paragraph.Children))
		}
	}
}

func TestDecodeMarkdownHeadingAndTasks(t *testing.T) {
	tree := DecodeMarkdown("# Title\n\n- [ ] buy milk\n- [x] pay rent\n")
	if len(tree.Children) != 2 {
		t.Fatalf("expected two blocks, got %d", len(tree.Children))
	}

	heading := tree.Children[0]
	if heading.Kind != KindHeading {
		t.Fatalf("expected heading, got %s", heading.Kind)
	}
	if level := heading.IntAttr(AttrLevel, 0); level != 1 {
		t.Fatalf("expected heading level 1, got %d", level)
	}
	if text := plainText(heading); text != "Title" {
		t.Fatalf("unexpected heading text: %q", text)
	}

	list := tree.Children[1]
	if list.Kind != KindTaskList {
		t.Fatalf("expected task list, got %s", list.Kind)
	}
	if len(list.Children) != 2 {
		t.Fatalf("expected two task items, got %d", len(list.Children))
	}
	assertTaskItem(t, list.Children[0], false, "buy milk")
	assertTaskItem(t, list.Children[1], true, "pay rent")
}

func TestDecodeMarkdownInlineMarks(t *testing.T) {
	tree := DecodeMarkdown("has **bold** and *italic* and `mono` and [site](https://example.com) and ~~gone~~\n")

	boldRun := mustFindRun(t, tree, "bold")
	assertHasMark(t, boldRun, MarkBold)
	italicRun := mustFindRun(t, tree, "italic")
	assertHasMark(t, italicRun, MarkItalic)
	codeRun := mustFindRun(t, tree, "mono")
	assertHasMark(t, codeRun, MarkCode)
	strikeRun := mustFindRun(t, tree, "gone")
	assertHasMark(t, strikeRun, MarkStrike)

	linkRun := mustFindRun(t, tree, "site")
	assertHasMark(t, linkRun, MarkLink)
	for _, mark := range linkRun.Marks {
		if mark.Type != MarkLink {
			continue
		}
		if href, _ := mark.Attrs[AttrHref].(string); href != "https://example.com" {
			t.Fatalf("unexpected link href: %q", href)
		}
	}
}

func TestDecodeMarkdownNestedAndOrderedLists(t *testing.T) {
	tree := DecodeMarkdown("- parent\n  - child\n\n1. first\n2. second\n")
	if len(tree.Children) != 2 {
		t.Fatalf("expected two lists, got %d", len(tree.Children))
	}

	bullets := tree.Children[0]
	if bullets.Kind != KindBulletList {
		t.Fatalf("expected bullet list, got %s", bullets.Kind)
	}
	if len(bullets.Children) != 1 {
		t.Fatalf("expected one top-level item, got %d", len(bullets.Children))
	}
	item := bullets.Children[0]
	if item.Kind != KindListItem {
		t.Fatalf("expected list item, got %s", item.Kind)
	}
	if len(item.Children) != 2 {
		t.Fatalf("expected paragraph plus nested list, got %d children", len(item.Children))
	}
	if nested := item.Children[1]; nested.Kind != KindBulletList {
		t.Fatalf("expected nested bullet list, got %s", nested.Kind)
	}

	ordered := tree.Children[1]
	if ordered.Kind != KindOrderedList {
		t.Fatalf("expected ordered list, got %s", ordered.Kind)
	}
	if start := ordered.IntAttr(AttrStart, 0); start != 1 {
		t.Fatalf("expected ordered list start 1, got %d", start)
	}
	if len(ordered.Children) != 2 {
		t.Fatalf("expected two ordered items, got %d", len(ordered.Children))
	}
}

func TestDecodeMarkdownCodeBlockAndBlockquote(t *testing.T) {
	tree := DecodeMarkdown("```go\nfmt.Println(1)\n```\n\n> quoted words\n")
	if len(tree.Children) != 2 {
		t.Fatalf("expected two blocks, got %d", len(tree.Children))
	}

	code := tree.Children[0]
	if code.Kind != KindCodeBlock {
		t.Fatalf("expected code block, got %s", code.Kind)
	}
	if language := code.StringAttr(AttrLanguage); language != "go" {
		t.Fatalf("unexpected language: %q", language)
	}
	if text := plainText(code); text != "fmt.Println(1)" {
		t.Fatalf("unexpected code content: %q", text)
	}

	quote := tree.Children[1]
	if quote.Kind != KindBlockquote {
		t.Fatalf("expected blockquote, got %s", quote.Kind)
	}
	if text := plainText(quote); text != "quoted words" {
		t.Fatalf("unexpected quote content: %q", text)
	}
}

func TestDecodeMarkdownSoftBreakNormalizesToSpace(t *testing.T) {
	tree := DecodeMarkdown("line one\nline two\n")
	if len(tree.Children) != 1 {
		t.Fatalf("expected one paragraph, got %d", len(tree.Children))
	}
	if text := plainText(tree.Children[0]); text != "line one line two" {
		t.Fatalf("unexpected paragraph text: %q", text)
	}
}

func TestEncodeMarkdownRoundTripScenario(t *testing.T) {
	input := "# Title\n\n- [ ] buy milk\n- [x] pay rent\n"
	rendered := EncodeMarkdown(DecodeMarkdown(input))

	assertOrderedSubstrings(t, rendered, "# Title", "- [ ] buy milk", "- [x] pay rent")
}

func TestEncodeMarkdownRoundTripMarks(t *testing.T) {
	input := "has **bold** and *italic* and `mono` and [site](https://example.com) and ~~gone~~\n"
	rendered := EncodeMarkdown(DecodeMarkdown(input))

	for _, expected := range []string{"**bold**", "*italic*", "`mono`", "[site](https://example.com)", "~~gone~~"} {
		if !strings.Contains(rendered, expected) {
			t.Fatalf("expected %q in rendered markdown %q", expected, rendered)
		}
	}
}

func TestEncodeMarkdownRoundTripBlockquoteAndCode(t *testing.T) {
	input := "```go\nfmt.Println(1)\n```\n\n> quoted words\n"
	rendered := EncodeMarkdown(DecodeMarkdown(input))

	assertOrderedSubstrings(t, rendered, "```go", "fmt.Println(1)", "```", "> quoted words")
}

func TestEncodeMarkdownBlockquotePrefixesEveryLine(t *testing.T) {
	tree := NewContainer(KindRoot, nil,
		NewContainer(KindBlockquote, nil,
			NewContainer(KindParagraph, nil, NewTextRun("first paragraph")),
			NewContainer(KindParagraph, nil, NewTextRun("second paragraph")),
		))

	rendered := EncodeMarkdown(tree)
	// Blank lines inside the quote carry a bare marker.
	if rendered != "> first paragraph\n>\n> second paragraph\n" {
		t.Fatalf("unexpected blockquote rendering: %q", rendered)
	}
}

func TestEncodeMarkdownRoundTripNestedLists(t *testing.T) {
	input := "- parent\n  - child\n"
	rendered := EncodeMarkdown(DecodeMarkdown(input))

	assertOrderedSubstrings(t, rendered, "- parent", "  - child")
}

func TestEncodeMarkdownTaskAttributeWins(t *testing.T) {
	tree := NewContainer(KindRoot, nil,
		NewContainer(KindTaskList, nil,
			NewContainer(KindTaskItem, map[string]any{AttrChecked: true},
				NewContainer(KindParagraph, nil, NewTextRun("ship it"))),
			NewContainer(KindTaskItem, map[string]any{AttrChecked: false},
				NewContainer(KindParagraph, nil, NewTextRun("hold off"))),
		))

	rendered := EncodeMarkdown(tree)
	assertOrderedSubstrings(t, rendered, "- [x] ship it", "- [ ] hold off")
}

func TestEncodeMarkdownTaskCheckboxFallback(t *testing.T) {
	// No checked attribute on the item: the renderer inspects the embedded
	// checkbox child instead.
	tree := NewContainer(KindRoot, nil,
		NewContainer(KindBulletList, nil,
			NewContainer(KindListItem, nil,
				NewContainer(KindCheckbox, map[string]any{AttrChecked: true}),
				NewContainer(KindParagraph, nil, NewTextRun("ship it"))),
			NewContainer(KindListItem, nil,
				NewContainer(KindParagraph, nil,
					NewContainer(KindCheckbox, map[string]any{AttrChecked: false}),
					NewTextRun("hold off"))),
		))

	rendered := EncodeMarkdown(tree)
	assertOrderedSubstrings(t, rendered, "- [x] ship it", "- [ ] hold off")
}

func TestEncodeMarkdownEmptyDocument(t *testing.T) {
	if rendered := EncodeMarkdown(EmptyDocument()); rendered != "" {
		t.Fatalf("expected empty render, got %q", rendered)
	}
	if rendered := EncodeMarkdown(nil); rendered != "" {
		t.Fatalf("expected empty render for nil tree, got %q", rendered)
	}
}

func TestNewTextRunDeduplicatesMarkTypes(t *testing.T) {
	run := NewTextRun("text", Mark{Type: MarkBold}, Mark{Type: MarkBold}, Mark{Type: MarkItalic})
	if len(run.Marks) != 2 {
		t.Fatalf("expected duplicate mark to collapse, got %d marks", len(run.Marks))
	}
}

func assertTaskItem(t *testing.T, item *Node, checked bool, text string) {
	t.Helper()
	if item.Kind != KindTaskItem {
		t.Fatalf("expected task item, got %s", item.Kind)
	}
	gotChecked, ok := item.BoolAttr(AttrChecked)
	if !ok {
		t.Fatalf("expected checked attribute on task item")
	}
	if gotChecked != checked {
		t.Fatalf("expected checked=%v, got %v", checked, gotChecked)
	}
	if got := plainText(item); got != text {
		t.Fatalf("unexpected task item text: %q", got)
	}
}

func assertHasMark(t *testing.T, run *Node, markType MarkType) {
	t.Helper()
	for _, mark := range run.Marks {
		if mark.Type == markType {
			return
		}
	}
	t.Fatalf("expected %s mark on run %q, got %v", markType, run.Text, run.Marks)
}

func assertOrderedSubstrings(t *testing.T, rendered string, parts ...string) {
	t.Helper()
	offset := 0
	for _, part := range parts {
		index := strings.Index(rendered[offset:], part)
		if index < 0 {
			t.Fatalf("expected %q after offset %d in %q", part, offset, rendered)
		}
		offset += index + len(part)
	}
}

func mustFindRun(t *testing.T, node *Node, text string) *Node {
	t.Helper()
	if run := findRun(node, text); run != nil {
		return run
	}
	t.Fatalf("expected a text run %q", text)
	return nil
}

func findRun(node *Node, text string) *Node {
	if node.Kind == KindText && node.Text == text {
		return node
	}
	for _, child := range node.Children {
		if run := findRun(child, text); run != nil {
			return run
		}
	}
	return nil
}

func plainText(node *Node) string {
	if node.Kind == KindText {
		return node.Text
	}
	var collected strings.Builder
	for _, child := range node.Children {
		collected.WriteString(plainText(child))
	}
	return collected.String()
}
