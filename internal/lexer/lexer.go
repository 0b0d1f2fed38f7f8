package lexer

// operators is ordered longest first so a prefix never shadows a longer
// operator ("<=>" before "<=" before "<").
var operators = []string{
	"<=>",
	"<=", ">=", "!=", "<>", "&&", "||",
	"=", "<", ">", "!",
}

// Lexer produces tokens from a query string. A Lexer is not safe for
// concurrent use; create one per parse.
type Lexer struct {
	src string
	pos Position
}

// New creates a Lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src, pos: Position{Line: 1, Col: 1}}
}

// Tokenize lexes the whole input, including the trailing EOF token.
func Tokenize(src string) []Token {
	l := New(src)
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

// Next returns the next token. After the input is exhausted it keeps
// returning EOF.
func (l *Lexer) Next() Token {
	l.skipIgnorable()
	start := l.pos
	if l.eof() {
		return Token{Kind: EOF, Pos: start, End: start}
	}

	c := l.peek(0)
	switch {
	case isLetter(c):
		for !l.eof() && isIdentPart(l.peek(0)) {
			l.advance()
		}
		return l.token(Ident, start)

	case isDigit(c), c == '.' && isDigit(l.peek(1)):
		return l.number(start)

	case (c == '+' || c == '-') && (isDigit(l.peek(1)) || l.peek(1) == '.' && isDigit(l.peek(2))):
		l.advance()
		return l.number(start)

	case c == '\'' || c == '"':
		return l.str(start, c)

	case c == '(':
		l.advance()
		return l.token(LParen, start)
	case c == ')':
		l.advance()
		return l.token(RParen, start)
	case c == ',':
		l.advance()
		return l.token(Comma, start)
	case c == '.':
		l.advance()
		return l.token(Dot, start)
	case c == '*':
		l.advance()
		return l.token(Star, start)
	}

	for _, op := range operators {
		if l.hasPrefix(op) {
			for range op {
				l.advance()
			}
			return l.token(Op, start)
		}
	}

	l.advance()
	return l.token(Illegal, start)
}

// number lexes the unsigned part of a numeric literal; a sign, if any, has
// already been consumed.
func (l *Lexer) number(start Position) Token {
	kind := Int
	l.digits()
	if l.peek(0) == '.' {
		kind = Real
		l.advance()
		l.digits()
	}
	if c := l.peek(0); c == 'e' || c == 'E' {
		n := 1
		if s := l.peek(1); s == '+' || s == '-' {
			n = 2
		}
		if isDigit(l.peek(n)) {
			kind = Real
			for i := 0; i < n; i++ {
				l.advance()
			}
			l.digits()
		}
	}
	return l.token(kind, start)
}

func (l *Lexer) digits() {
	for !l.eof() && isDigit(l.peek(0)) {
		l.advance()
	}
}

func (l *Lexer) str(start Position, quote byte) Token {
	l.advance()
	for !l.eof() {
		c := l.peek(0)
		if c == '\n' || c == '\r' {
			break
		}
		l.advance()
		if c == quote {
			return l.token(String, start)
		}
	}
	return l.token(Illegal, start)
}

// skipIgnorable consumes whitespace and line comments.
func (l *Lexer) skipIgnorable() {
	for !l.eof() {
		c := l.peek(0)
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			l.advance()
		case c == '#', c == '-' && l.peek(1) == '-':
			for !l.eof() && l.peek(0) != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) token(kind Kind, start Position) Token {
	return Token{
		Kind: kind,
		Text: l.src[start.Offset:l.pos.Offset],
		Pos:  start,
		End:  l.pos,
	}
}

func (l *Lexer) eof() bool {
	return l.pos.Offset >= len(l.src)
}

func (l *Lexer) peek(n int) byte {
	if i := l.pos.Offset + n; i < len(l.src) {
		return l.src[i]
	}
	return 0
}

func (l *Lexer) hasPrefix(s string) bool {
	return len(l.src)-l.pos.Offset >= len(s) && l.src[l.pos.Offset:l.pos.Offset+len(s)] == s
}

// advance moves past one byte. Columns count runes: continuation bytes of a
// multi-byte rune do not advance the column.
func (l *Lexer) advance() {
	c := l.src[l.pos.Offset]
	l.pos.Offset++
	switch {
	case c == '\n':
		l.pos.Line++
		l.pos.Col = 1
	case c&0xC0 != 0x80:
		l.pos.Col++
	}
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentPart(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '$'
}
