// Package lexer splits query text into tokens for the grammar engine.
//
// The lexer knows nothing about keywords: every word is an Ident token and
// the parser matches keywords case-insensitively with Token.Is. Comments
// (-- and #) and whitespace are skipped. Every token records where it starts
// and where it ends so the parser can check adjacency (dotted names) and
// report errors at the first unconsumed character.
package lexer

import (
	"fmt"
	"strings"
)

// Kind classifies a token.
type Kind uint8

const (
	EOF Kind = iota
	Illegal
	Ident
	Int
	Real
	String
	Op
	LParen
	RParen
	Comma
	Dot
	Star
)

var kindNames = [...]string{
	EOF:     "end of input",
	Illegal: "illegal token",
	Ident:   "identifier",
	Int:     "integer",
	Real:    "real number",
	String:  "string",
	Op:      "operator",
	LParen:  "'('",
	RParen:  "')'",
	Comma:   "','",
	Dot:     "'.'",
	Star:    "'*'",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Position is a location in the source. Line and Col are 1-based, Offset is
// a 0-based byte offset.
type Position struct {
	Offset int
	Line   int
	Col    int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a single lexeme. Text is the raw source text; for strings it
// includes the quotes.
type Token struct {
	Kind Kind
	Text string
	Pos  Position // first character
	End  Position // one past the last character
}

// Is reports whether the token is the given keyword (case-insensitive) or
// operator symbol.
func (t Token) Is(word string) bool {
	switch t.Kind {
	case Ident:
		return strings.EqualFold(t.Text, word)
	case Op:
		return t.Text == word
	}
	return false
}

// Adjacent reports whether next starts exactly where t ends.
func (t Token) Adjacent(next Token) bool {
	return t.End.Offset == next.Pos.Offset
}

func (t Token) String() string {
	if t.Kind == EOF {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

// Unquote strips the delimiting quotes of a String token. Contents are taken
// verbatim.
func (t Token) Unquote() string {
	if t.Kind != String || len(t.Text) < 2 {
		return t.Text
	}
	return t.Text[1 : len(t.Text)-1]
}
