// Package render turns messages and session lists into display output.
package render

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	codeBlockPattern  = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)\\n?(.*?)```")
	inlineCodePattern = regexp.MustCompile("`([^`\\n]+)`")
	boldPattern       = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	italicPattern     = regexp.MustCompile(`\*([^*\n]+)\*`)
	linkPattern       = regexp.MustCompile(`\[([^\]\n]+)\]\(([^)\s]+)\)`)
	placeholderRe     = regexp.MustCompile(`\x00(\d+)\x00`)
	controlPattern    = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)
)

// decorator produces the output form of each markup element. Inputs are
// already made safe for the target medium.
type decorator interface {
	codeBlock(lang, code string) string
	inlineCode(code string) string
	bold(text string) string
	italic(text string) string
	link(text, target string) string
	lineBreak() string
}

// FormatHTML escapes content and then applies code blocks, inline code,
// bold, italic, links and line breaks. Markup in content is never emitted
// unescaped.
func FormatHTML(content string) string {
	escaped := html.EscapeString(strings.ReplaceAll(content, "\x00", ""))
	return decorate(escaped, htmlDecorator{})
}

// FormatTerminal applies the same rules for terminal output. Control
// characters are stripped first so content cannot emit escape sequences.
func FormatTerminal(content string) string {
	return decorate(StripControl(content), terminalDecorator{})
}

// StripControl removes control characters other than newline and tab
func StripControl(s string) string {
	return controlPattern.ReplaceAllString(strings.ReplaceAll(s, "\r\n", "\n"), "")
}

func decorate(text string, d decorator) string {
	var protected []string
	protect := func(s string) string {
		protected = append(protected, s)
		return "\x00" + strconv.Itoa(len(protected)-1) + "\x00"
	}

	text = codeBlockPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := codeBlockPattern.FindStringSubmatch(m)
		return protect(d.codeBlock(parts[1], strings.TrimSuffix(parts[2], "\n")))
	})
	text = inlineCodePattern.ReplaceAllStringFunc(text, func(m string) string {
		return protect(d.inlineCode(inlineCodePattern.FindStringSubmatch(m)[1]))
	})
	text = linkPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := linkPattern.FindStringSubmatch(m)
		if !safeLink(parts[2]) {
			return m
		}
		return protect(d.link(parts[1], parts[2]))
	})
	text = boldPattern.ReplaceAllStringFunc(text, func(m string) string {
		return d.bold(boldPattern.FindStringSubmatch(m)[1])
	})
	text = italicPattern.ReplaceAllStringFunc(text, func(m string) string {
		return d.italic(italicPattern.FindStringSubmatch(m)[1])
	})
	text = strings.ReplaceAll(text, "\n", d.lineBreak())

	// protected elements may nest (code inside link text)
	for i := 0; i <= len(protected) && placeholderRe.MatchString(text); i++ {
		text = placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
			n, err := strconv.Atoi(placeholderRe.FindStringSubmatch(m)[1])
			if err != nil || n >= len(protected) {
				return ""
			}
			return protected[n]
		})
	}
	return text
}

// safeLink reports whether target uses an allowed scheme
func safeLink(target string) bool {
	u, err := url.Parse(html.UnescapeString(target))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return true
	}
	return false
}

type htmlDecorator struct{}

func (htmlDecorator) codeBlock(lang, code string) string {
	if lang != "" {
		return fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`, lang, code)
	}
	return "<pre><code>" + code + "</code></pre>"
}

func (htmlDecorator) inlineCode(code string) string { return "<code>" + code + "</code>" }
func (htmlDecorator) bold(text string) string       { return "<strong>" + text + "</strong>" }
func (htmlDecorator) italic(text string) string     { return "<em>" + text + "</em>" }
func (htmlDecorator) lineBreak() string             { return "<br>" }

func (htmlDecorator) link(text, target string) string {
	return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, target, text)
}

var (
	codeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	italicStyle = lipgloss.NewStyle().Italic(true)
	linkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	blockStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			PaddingLeft(1)
)

type terminalDecorator struct{}

func (terminalDecorator) codeBlock(_, code string) string {
	return "\n" + blockStyle.Render(code) + "\n"
}

func (terminalDecorator) inlineCode(code string) string { return codeStyle.Render(code) }
func (terminalDecorator) bold(text string) string       { return boldStyle.Render(text) }
func (terminalDecorator) italic(text string) string     { return italicStyle.Render(text) }
func (terminalDecorator) lineBreak() string             { return "\n" }

func (terminalDecorator) link(text, target string) string {
	if text == target {
		return linkStyle.Render(target)
	}
	return text + " (" + linkStyle.Render(target) + ")"
}
