package doctree

import (
	"fmt"
	"strings"
)

// EncodeMarkdown renders a rich document tree to markdown text. Rendering is
// semantic rather than byte-preserving: list markers and emphasis delimiters
// normalize to one style. Unknown node kinds render nothing.
func EncodeMarkdown(root *Node) string {
	if root == nil {
		return ""
	}
	chunks := renderBlocks(root.Children)
	if len(chunks) == 0 {
		return ""
	}
	rendered := strings.Join(chunks, "\n\n")
	if strings.TrimSpace(rendered) == "" {
		return ""
	}
	return rendered + "\n"
}

func renderBlocks(nodes []*Node) []string {
	chunks := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if chunk, ok := renderBlock(node); ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func renderBlock(node *Node) (string, bool) {
	switch node.Kind {
	case KindParagraph:
		return renderInlines(node.Children), true
	case KindHeading:
		level := node.IntAttr(AttrLevel, 1)
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		return strings.Repeat("#", level) + " " + renderInlines(node.Children), true
	case KindBulletList, KindOrderedList, KindTaskList:
		return renderList(node), true
	case KindCodeBlock:
		language := node.StringAttr(AttrLanguage)
		return "```" + language + "\n" + textContent(node) + "\n```", true
	case KindBlockquote:
		inner := strings.Join(renderBlocks(node.Children), "\n\n")
		return prefixLines(inner, "> "), true
	case KindHorizontalRule:
		return "---", true
	default:
		return "", false
	}
}

func renderList(list *Node) string {
	lines := make([]string, 0, len(list.Children))
	ordered := list.Kind == KindOrderedList
	number := list.IntAttr(AttrStart, 1)
	for _, item := range list.Children {
		var marker string
		switch {
		case isTaskItem(item):
			if taskChecked(item) {
				marker = "- [x] "
			} else {
				marker = "- [ ] "
			}
		case ordered:
			marker = fmt.Sprintf("%d. ", number)
			number++
		default:
			marker = "- "
		}
		indent := 2
		if ordered {
			indent = len(marker)
		}
		lines = append(lines, renderListItem(item, marker, indent))
	}
	return strings.Join(lines, "\n")
}

// isTaskItem reports whether an item renders with checkbox syntax: either the
// container is a task item or it carries a bare checkbox child.
func isTaskItem(item *Node) bool {
	if item.Kind == KindTaskItem {
		return true
	}
	_, found := findChildCheckbox(item)
	return found
}

// taskChecked resolves the checkbox state from the item's attribute, falling
// back to an embedded checkbox child when the attribute is absent.
func taskChecked(item *Node) bool {
	if checked, ok := item.BoolAttr(AttrChecked); ok {
		return checked
	}
	checked, _ := findChildCheckbox(item)
	return checked
}

func findChildCheckbox(item *Node) (bool, bool) {
	for _, child := range item.Children {
		if child.Kind == KindCheckbox {
			checked, _ := child.BoolAttr(AttrChecked)
			return checked, true
		}
		if child.Kind == KindParagraph {
			for _, inner := range child.Children {
				if inner.Kind == KindCheckbox {
					checked, _ := inner.BoolAttr(AttrChecked)
					return checked, true
				}
			}
		}
	}
	return false, false
}

// prefixLines marks every line of a rendered block, keeping blank lines as a
// bare trimmed prefix.
func prefixLines(content, prefix string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(prefix+line, " ")
	}
	return strings.Join(lines, "\n")
}

func renderListItem(item *Node, marker string, indent int) string {
	chunks := renderBlocks(item.Children)
	if len(chunks) == 0 {
		return strings.TrimRight(marker, " ")
	}
	body := strings.Join(chunks, "\n")
	lines := strings.Split(body, "\n")
	padding := strings.Repeat(" ", indent)
	for i, line := range lines {
		if i == 0 {
			lines[i] = marker + line
			continue
		}
		if line != "" {
			lines[i] = padding + line
		}
	}
	return strings.Join(lines, "\n")
}

func renderInlines(nodes []*Node) string {
	var rendered strings.Builder
	for _, node := range nodes {
		switch node.Kind {
		case KindText:
			rendered.WriteString(renderTextRun(node))
		case KindHardBreak:
			rendered.WriteString("\\\n")
		case KindCheckbox:
			// Consumed by the task-item marker.
		default:
			rendered.WriteString(renderInlines(node.Children))
		}
	}
	return rendered.String()
}

func renderTextRun(run *Node) string {
	text := run.Text
	if strings.TrimSpace(text) == "" {
		return text
	}

	byType := make(map[MarkType]Mark, len(run.Marks))
	for _, mark := range run.Marks {
		byType[mark.Type] = mark
	}
	if _, ok := byType[MarkCode]; ok {
		text = "`" + text + "`"
	}
	if _, ok := byType[MarkStrike]; ok {
		text = "~~" + text + "~~"
	}
	if _, ok := byType[MarkItalic]; ok {
		text = "*" + text + "*"
	}
	if _, ok := byType[MarkBold]; ok {
		text = "**" + text + "**"
	}
	if link, ok := byType[MarkLink]; ok {
		href, _ := link.Attrs[AttrHref].(string)
		text = "[" + text + "](" + href + ")"
	}
	return text
}

func textContent(node *Node) string {
	var content strings.Builder
	for _, child := range node.Children {
		if child.Kind == KindText {
			content.WriteString(child.Text)
			continue
		}
		content.WriteString(textContent(child))
	}
	return content.String()
}
