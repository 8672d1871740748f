package markdown

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/unspool"
)

type palette struct {
	keyword  lipgloss.Style
	name     lipgloss.Style
	builtin  lipgloss.Style
	str      lipgloss.Style
	number   lipgloss.Style
	comment  lipgloss.Style
	operator lipgloss.Style
	err      lipgloss.Style
}

func newPalette(t unspool.Theme) palette {
	return palette{
		keyword:  lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		name:     lipgloss.NewStyle().Foreground(ansiColor(t.Prompt)),
		builtin:  lipgloss.NewStyle().Foreground(ansiColor(t.Focus)),
		str:      lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		number:   lipgloss.NewStyle().Foreground(ansiColor(t.Literal)),
		comment:  lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Italic(true),
		operator: lipgloss.NewStyle().Foreground(ansiColor(t.Muted)),
		err:      lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
	}
}

func (p palette) style(tt chroma.TokenType) (lipgloss.Style, bool) {
	switch {
	case tt == chroma.Error:
		return p.err, true
	case tt.InCategory(chroma.Comment):
		return p.comment, true
	case tt.InCategory(chroma.Keyword):
		return p.keyword, true
	case tt.InCategory(chroma.LiteralString):
		return p.str, true
	case tt.InCategory(chroma.LiteralNumber):
		return p.number, true
	case tt.InCategory(chroma.Operator):
		return p.operator, true
	case tt == chroma.NameBuiltin || tt == chroma.NameBuiltinPseudo:
		return p.builtin, true
	case tt == chroma.NameFunction || tt == chroma.NameClass:
		return p.name, true
	}
	return lipgloss.Style{}, false
}

// highlight returns code split into lines with syntax styling applied. The
// lexer is picked by language name, then by content analysis.
func (r *renderer) highlight(code, language string) []string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return strings.Split(code, "\n")
	}

	var lines []string
	var cur strings.Builder
	for tok := it(); tok != chroma.EOF; tok = it() {
		style, styled := r.palette.style(tok.Type)
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if part != "" {
				if styled {
					part = style.Render(part)
				}
				cur.WriteString(part)
			}
			if i < len(parts)-1 {
				lines = append(lines, cur.String())
				cur.Reset()
			}
		}
	}
	lines = append(lines, cur.String())
	// Lexers commonly terminate the input with a newline of their own.
	if len(lines) > 1 && lines[len(lines)-1] == "" && !strings.HasSuffix(code, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}
