package memhost

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// newMarkdown builds the goldmark engine used for previews.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM, extension.TaskList))
}

// render parses src and appends the rendered elements to body in document
// order. Code blocks, tables, images and raw HTML are not rendered as
// elements.
func (d *Document) render(body *Container, src []byte) {
	root := d.md.Parser().Parse(text.NewReader(src))
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		d.renderBlock(body, n, src)
	}
}

func (d *Document) renderBlock(body *Container, n ast.Node, src []byte) {
	switch n := n.(type) {
	case *ast.Paragraph:
		body.add(newEditable(d, KindParagraph, inlineText(n, src)))
	case *ast.Heading:
		h := newEditable(d, KindHeading, inlineText(n, src))
		h.level = n.Level
		body.add(h)
	case *ast.Blockquote:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			d.renderBlock(body, c, src)
		}
	case *ast.List:
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			d.renderItem(body, item, src)
		}
	}
}

// renderItem renders a list item followed by its nested lists. The item's
// own text excludes nested lists.
func (d *Document) renderItem(body *Container, item ast.Node, src []byte) {
	var parts []string
	var checkbox *east.TaskCheckBox
	var nested []ast.Node

	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.Kind() {
		case ast.KindTextBlock, ast.KindParagraph:
			if checkbox == nil && len(parts) == 0 {
				if cb, ok := c.FirstChild().(*east.TaskCheckBox); ok {
					checkbox = cb
				}
			}
			parts = append(parts, inlineText(c, src))
		case ast.KindList:
			nested = append(nested, c)
		default:
			// Code blocks and quotes inside items render as their own blocks.
			nested = append(nested, c)
		}
	}
	itemText := strings.Join(parts, "\n")

	if checkbox != nil {
		task := &TaskItem{element: newElement(d, KindTaskItem, itemText)}
		cb := &Checkbox{element: newElement(d, KindCheckbox, ""), checked: checkbox.IsChecked}
		task.checkbox = cb
		body.add(task)
	} else {
		body.add(newEditable(d, KindListItem, itemText))
	}

	for _, n := range nested {
		d.renderBlock(body, n, src)
	}
}

// inlineText returns the text content of a block's inline children, as a
// browser would report it.
func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(c.Value)
		case *ast.AutoLink:
			sb.Write(c.Label(src))
			return ast.WalkSkipChildren, nil
		case *ast.Image, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
