package frontend

import (
	"fmt"
	"strings"
)

// Lexer turns source text into a flat Token stream, threading Python-style
// indentation into explicit TokIndent/TokDedent markers so the parser below
// can stay a plain recursive-descent grammar over a token slice instead of
// reasoning about whitespace directly.
type Lexer struct {
	src    string
	line   int
	indent []int
}

// NewLexer returns a Lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, indent: []int{0}}
}

// Lex tokenizes the entire source, returning one flat Token slice terminated
// by a TokEOF.
func (lx *Lexer) Lex() ([]Token, error) {
	var toks []Token

	lines := strings.Split(lx.src, "\n")
	for i, raw := range lines {
		lx.line = i + 1

		trimmed := strings.TrimRight(raw, " \t\r")
		stripped := strings.TrimLeft(trimmed, " \t")
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue // blank line or comment-only line carries no tokens
		}

		col := len(trimmed) - len(stripped)
		indentToks, err := lx.reindent(col)
		if err != nil {
			return nil, err
		}
		toks = append(toks, indentToks...)

		lineToks, err := lx.lexLine(stripped)
		if err != nil {
			return nil, err
		}
		toks = append(toks, lineToks...)
		toks = append(toks, Token{Kind: TokNewline, Line: lx.line})
	}

	for len(lx.indent) > 1 {
		lx.indent = lx.indent[:len(lx.indent)-1]
		toks = append(toks, Token{Kind: TokDedent, Line: lx.line})
	}
	toks = append(toks, Token{Kind: TokEOF, Line: lx.line})
	return toks, nil
}

// reindent compares col against the current indentation stack, returning
// the INDENT/DEDENT tokens needed to reach it.
func (lx *Lexer) reindent(col int) ([]Token, error) {
	top := lx.indent[len(lx.indent)-1]
	if col > top {
		lx.indent = append(lx.indent, col)
		return []Token{{Kind: TokIndent, Line: lx.line}}, nil
	}

	var toks []Token
	for col < lx.indent[len(lx.indent)-1] {
		lx.indent = lx.indent[:len(lx.indent)-1]
		toks = append(toks, Token{Kind: TokDedent, Line: lx.line})
	}
	if lx.indent[len(lx.indent)-1] != col {
		return nil, fmt.Errorf("frontend: line %d: inconsistent indentation", lx.line)
	}
	return toks, nil
}

// lexLine tokenizes one logical (already de-indented) line of source.
func (lx *Lexer) lexLine(s string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++

		case c == '#':
			i = len(s) // trailing comment: discard the rest of the line

		case isDigit(c):
			j := i
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			var v int32
			for _, d := range s[i:j] {
				v = v*10 + int32(d-'0')
			}
			toks = append(toks, Token{Kind: TokNumber, Text: s[i:j], Value: v, Line: lx.line})
			i = j

		case isIdentStart(c):
			j := i
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			word := s[i:j]
			if kind, ok := keywords[word]; ok {
				toks = append(toks, Token{Kind: kind, Text: word, Line: lx.line})
			} else {
				toks = append(toks, Token{Kind: TokName, Text: word, Line: lx.line})
			}
			i = j

		case c == '=' && i+1 < len(s) && s[i+1] == '=':
			toks = append(toks, Token{Kind: TokEq, Text: "==", Line: lx.line})
			i += 2
		case c == '!' && i+1 < len(s) && s[i+1] == '=':
			toks = append(toks, Token{Kind: TokNEq, Text: "!=", Line: lx.line})
			i += 2
		case c == '=':
			toks = append(toks, Token{Kind: TokAssign, Text: "=", Line: lx.line})
			i++
		case c == '+':
			toks = append(toks, Token{Kind: TokPlus, Text: "+", Line: lx.line})
			i++
		case c == '-':
			toks = append(toks, Token{Kind: TokMinus, Text: "-", Line: lx.line})
			i++
		case c == '(':
			toks = append(toks, Token{Kind: TokLParen, Text: "(", Line: lx.line})
			i++
		case c == ')':
			toks = append(toks, Token{Kind: TokRParen, Text: ")", Line: lx.line})
			i++
		case c == '[':
			toks = append(toks, Token{Kind: TokLBracket, Text: "[", Line: lx.line})
			i++
		case c == ']':
			toks = append(toks, Token{Kind: TokRBracket, Text: "]", Line: lx.line})
			i++
		case c == '{':
			toks = append(toks, Token{Kind: TokLBrace, Text: "{", Line: lx.line})
			i++
		case c == '}':
			toks = append(toks, Token{Kind: TokRBrace, Text: "}", Line: lx.line})
			i++
		case c == ':':
			toks = append(toks, Token{Kind: TokColon, Text: ":", Line: lx.line})
			i++
		case c == ',':
			toks = append(toks, Token{Kind: TokComma, Text: ",", Line: lx.line})
			i++
		default:
			return nil, fmt.Errorf("frontend: line %d: unexpected character %q", lx.line, c)
		}
	}
	return toks, nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
