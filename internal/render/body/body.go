// Package body converts a post's HTML content fragment into wrapped terminal
// lines. It handles the block structure that actually occurs in post bodies
// (headings, paragraphs, lists, quotes, code, images) and degrades to plain
// text for anything else.
package body

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	nethtml "golang.org/x/net/html"
)

var (
	headingStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#b4befe"))
	quotePrefix     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c")).Render("│ ")
	quoteStyle      = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#a6adc8"))
	codeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387"))
	imageLabelStyle = lipgloss.NewStyle().Italic(true).Faint(true).Foreground(lipgloss.Color("#cba6f7"))
)

type renderer struct {
	width int
}

// Lines renders an HTML fragment at the given width. An empty or
// unparseable fragment yields nil.
func Lines(fragment string, width int) []string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil
	}
	if width < 10 {
		width = 10
	}

	doc, err := nethtml.Parse(strings.NewReader(fragment))
	if err != nil {
		return Wrap(stripTags(fragment), width)
	}
	bodyNode := findBody(doc)
	if bodyNode == nil {
		return Wrap(stripTags(fragment), width)
	}
	r := renderer{width: width}
	return trimBlank(r.renderNodes(children(bodyNode), 0))
}

func (r renderer) renderNodes(nodes []*nethtml.Node, listDepth int) []string {
	lines := make([]string, 0, len(nodes)*2)
	inline := make([]string, 0, 4)
	flush := func() {
		text := normalize(strings.Join(inline, " "))
		inline = inline[:0]
		if text == "" {
			return
		}
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		lines = append(lines, Wrap(text, r.width)...)
	}

	for _, node := range nodes {
		switch node.Type {
		case nethtml.TextNode:
			inline = append(inline, node.Data)
		case nethtml.ElementNode:
			if !isBlock(node.Data) {
				inline = append(inline, r.inlineNode(node))
				continue
			}
			flush()
			block := r.renderBlock(node, listDepth)
			if len(block) == 0 {
				continue
			}
			if len(lines) > 0 && lines[len(lines)-1] != "" {
				lines = append(lines, "")
			}
			lines = append(lines, block...)
		}
	}
	flush()
	return lines
}

func (r renderer) renderBlock(node *nethtml.Node, listDepth int) []string {
	tag := strings.ToLower(node.Data)
	switch tag {
	case "script", "style", "noscript":
		return nil
	case "h1", "h2", "h3", "h4", "h5", "h6":
		text := normalize(r.inlineChildren(node))
		if text == "" {
			return nil
		}
		out := Wrap(text, r.width)
		for i, line := range out {
			if line != "" {
				out[i] = headingStyle.Render(line)
			}
		}
		return out
	case "p", "div", "section", "article", "figure":
		if hasBlockChild(node) {
			return r.renderNodes(children(node), listDepth)
		}
		text := normalize(r.inlineChildren(node))
		if text == "" {
			return r.renderNodes(children(node), listDepth)
		}
		return Wrap(text, r.width)
	case "blockquote":
		inner := r.renderNodes(children(node), listDepth)
		if len(inner) == 0 {
			text := normalize(r.inlineChildren(node))
			if text == "" {
				return nil
			}
			inner = Wrap(text, r.width-2)
		}
		out := make([]string, 0, len(inner))
		for _, line := range inner {
			if strings.TrimSpace(line) == "" {
				out = append(out, "")
				continue
			}
			out = append(out, quotePrefix+quoteStyle.Render(line))
		}
		return out
	case "ul", "ol":
		return r.renderList(node, tag == "ol", listDepth+1)
	case "pre":
		raw := strings.ReplaceAll(rawText(node), "\r\n", "\n")
		rawLines := strings.Split(raw, "\n")
		out := make([]string, 0, len(rawLines))
		for _, line := range rawLines {
			line = strings.TrimRight(line, " \t")
			if line == "" {
				out = append(out, "")
				continue
			}
			out = append(out, "    "+codeStyle.Render(line))
		}
		return trimBlank(out)
	case "img":
		label := attr(node, "alt")
		if label == "" {
			label = attr(node, "src")
		}
		if label == "" {
			return nil
		}
		return []string{imageLabelStyle.Render("[image: " + label + "]")}
	case "hr":
		n := r.width
		if n > 24 {
			n = 24
		}
		return []string{strings.Repeat("-", n)}
	default:
		return r.renderNodes(children(node), listDepth)
	}
}

func (r renderer) renderList(node *nethtml.Node, ordered bool, depth int) []string {
	indent := strings.Repeat("  ", depth-1)
	out := make([]string, 0, 8)
	counter := 0
	for _, child := range children(node) {
		if child.Type != nethtml.ElementNode || !strings.EqualFold(child.Data, "li") {
			continue
		}
		counter++
		marker := indent + "- "
		if ordered {
			marker = indent + strconv.Itoa(counter) + ". "
		}
		text := normalize(r.inlineChildren(child))
		if text != "" {
			wrapped := Wrap(text, r.width-len(marker))
			for i, line := range wrapped {
				if i == 0 {
					out = append(out, marker+line)
				} else {
					out = append(out, strings.Repeat(" ", len(marker))+line)
				}
			}
		}
		// Nested lists inside the item.
		for _, grand := range children(child) {
			if grand.Type == nethtml.ElementNode && (strings.EqualFold(grand.Data, "ul") || strings.EqualFold(grand.Data, "ol")) {
				out = append(out, r.renderList(grand, strings.EqualFold(grand.Data, "ol"), depth+1)...)
			}
		}
	}
	return out
}

func (r renderer) inlineChildren(node *nethtml.Node) string {
	parts := make([]string, 0, 4)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		parts = append(parts, r.inlineNode(child))
	}
	return strings.Join(parts, " ")
}

func (r renderer) inlineNode(node *nethtml.Node) string {
	if node == nil {
		return ""
	}
	switch node.Type {
	case nethtml.TextNode:
		return node.Data
	case nethtml.ElementNode:
		switch strings.ToLower(node.Data) {
		case "script", "style", "noscript", "img":
			return ""
		case "br":
			return "\n"
		case "a":
			text := normalize(r.inlineChildren(node))
			href := attr(node, "href")
			switch {
			case href == "":
				return text
			case text == "" || strings.EqualFold(text, href):
				return href
			default:
				return text + " (" + href + ")"
			}
		case "code", "kbd", "samp":
			text := normalize(r.inlineChildren(node))
			if text == "" {
				return ""
			}
			return codeStyle.Render("`" + text + "`")
		default:
			return r.inlineChildren(node)
		}
	default:
		return ""
	}
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "blockquote": true, "pre": true,
	"figure": true, "img": true, "hr": true, "table": true,
	"script": true, "style": true, "noscript": true,
}

func isBlock(tag string) bool { return blockTags[strings.ToLower(tag)] }

func hasBlockChild(node *nethtml.Node) bool {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == nethtml.ElementNode && isBlock(child.Data) {
			return true
		}
	}
	return false
}

func children(node *nethtml.Node) []*nethtml.Node {
	out := make([]*nethtml.Node, 0, 4)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == nethtml.TextNode && strings.TrimSpace(child.Data) == "" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func findBody(node *nethtml.Node) *nethtml.Node {
	if node == nil {
		return nil
	}
	if node.Type == nethtml.ElementNode && strings.EqualFold(node.Data, "body") {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findBody(child); found != nil {
			return found
		}
	}
	return nil
}

func attr(node *nethtml.Node, name string) string {
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func rawText(node *nethtml.Node) string {
	if node == nil {
		return ""
	}
	if node.Type == nethtml.TextNode {
		return node.Data
	}
	var b strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(rawText(child))
	}
	return b.String()
}

func normalize(s string) string {
	s = html.UnescapeString(s)
	parts := strings.Split(s, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Join(strings.Fields(part), " ")
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	normalized := strings.Join(out, "\n")
	replacer := strings.NewReplacer(
		" .", ".",
		" ,", ",",
		" ;", ";",
		" :", ":",
		" !", "!",
		" ?", "?",
		" )", ")",
		"( ", "(",
	)
	return replacer.Replace(normalized)
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return normalize(b.String())
}

// trimBlank drops leading and trailing blank lines and collapses interior
// runs of blanks to a single separator.
func trimBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	pendingBlank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			pendingBlank = len(out) > 0
			continue
		}
		if pendingBlank {
			out = append(out, "")
			pendingBlank = false
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// visibleLen is the on-screen width of s in runes, ignoring ANSI color codes.
func visibleLen(s string) int {
	return utf8.RuneCountInString(reANSICodes.ReplaceAllString(s, ""))
}

// splitVisible cuts s after n visible runes. Escape sequences stay whole on
// whichever side they started.
func splitVisible(s string, n int) (head, tail string) {
	seen := 0
	inEscape := false
	for i, r := range s {
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		if r == 0x1b {
			inEscape = true
			continue
		}
		if seen == n {
			return s[:i], s[i:]
		}
		seen++
	}
	return s, ""
}

// Wrap word-wraps text at width, preserving paragraph breaks. Widths are
// measured on visible runes, so already-styled words are neither counted at
// their escape-inflated byte length nor hard-split inside an escape sequence.
func Wrap(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	out := make([]string, 0, 8)
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		lineLen := 0
		for _, word := range words {
			wordLen := visibleLen(word)
			for wordLen > width {
				if line != "" {
					out = append(out, line)
					line, lineLen = "", 0
				}
				head, tail := splitVisible(word, width)
				out = append(out, head)
				word, wordLen = tail, visibleLen(tail)
			}
			switch {
			case line == "":
				line, lineLen = word, wordLen
			case lineLen+1+wordLen <= width:
				line += " " + word
				lineLen += 1 + wordLen
			default:
				out = append(out, line)
				line, lineLen = word, wordLen
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
