package geometry

// This file implements the WKT tokenizer. Words are runs of letters, digits,
// '-', '+', '.' and bytes from 160 upwards; '(', ')', ',', ';' and '=' are
// single-byte tokens; '#' starts a comment that runs to the end of the line.

const (
	tokEOF = iota
	tokWord
	tokPunct
)

type token struct {
	kind   int
	text   string
	offset int
}

type lexer struct {
	src  string
	pos  int
	peek *token
}

func isWordByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '+' || c == '.':
		return true
	}
	return c >= 160
}

// isDecimal reports whether s is a decimal number: an optional sign,
// digits with at most one '.', and an optional exponent. Hex floats and
// infinities are not numbers in WKT.
func isDecimal(s string) bool {
	i := skipSign(s, 0)
	digits, dot := 0, false
	for ; i < len(s); i++ {
		if isDigit(s[i]) {
			digits++
		} else if s[i] == '.' && !dot {
			dot = true
		} else {
			break
		}
	}
	if digits == 0 {
		return false
	}
	if i == len(s) {
		return true
	}
	if s[i] != 'e' && s[i] != 'E' {
		return false
	}
	i = skipSign(s, i+1)
	exp := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i > exp && i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func skipSign(s string, i int) int {
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		return i + 1
	}
	return i
}

func (l *lexer) next() (token, error) {
	if l.peek != nil {
		t := *l.peek
		l.peek = nil
		return t, nil
	}
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c <= ' ':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
				l.pos++
			}
		case c == '(' || c == ')' || c == ',' || c == ';' || c == '=':
			l.pos++
			return token{kind: tokPunct, text: string(c), offset: l.pos - 1}, nil
		case isWordByte(c):
			start := l.pos
			for l.pos < len(l.src) && isWordByte(l.src[l.pos]) {
				l.pos++
			}
			return token{kind: tokWord, text: l.src[start:l.pos], offset: start}, nil
		default:
			return token{}, &ParseError{Token: string(c), Offset: l.pos, Msg: "unsupported character"}
		}
	}
	return token{kind: tokEOF, offset: len(l.src)}, nil
}

func (l *lexer) lookahead() (token, error) {
	if l.peek != nil {
		return *l.peek, nil
	}
	t, err := l.next()
	if err != nil {
		return token{}, err
	}
	l.peek = &t
	return t, nil
}
