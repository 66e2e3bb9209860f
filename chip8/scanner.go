package chip8

import (
	"unicode"
	"unicode/utf8"
)

/// Type for scanned tokens.
///
type TokenKind uint

/// Lexical assembly tokens.
///
const (
	TokenLabel TokenKind = iota
	TokenIdent
	TokenNumber
)

/// A scanned, lexical token. Label tokens hold the name without the
/// leading '.'.
///
type Token struct {
	Kind TokenKind
	Text string
	Line int
}

/// String returns the token as it was written in the source.
///
func (t Token) String() string {
	if t.Kind == TokenLabel {
		return "." + t.Text
	}

	return t.Text
}

/// Scanner produces tokens from assembly source on demand.
///
type Scanner struct {
	src []byte

	// scan position and current line
	pos  int
	line int
}

/// NewScanner returns a scanner positioned at the start of src.
///
func NewScanner(src []byte) *Scanner {
	return &Scanner{src: src, line: 1}
}

/// Tokenize scans all of src and returns the tokens in source order.
///
func Tokenize(src []byte) []Token {
	var tokens []Token

	s := NewScanner(src)
	for t, ok := s.Next(); ok; t, ok = s.Next() {
		tokens = append(tokens, t)
	}

	return tokens
}

/// Next returns the next token, or false at the end of the source.
/// Comments, whitespace and unknown characters never produce a token.
///
func (s *Scanner) Next() (Token, bool) {
	for s.pos < len(s.src) {
		c, size := s.peek()

		switch {
		case c == '\n':
			s.line++
			s.pos += size
		case c == ';':
			s.skipComment()
		case c == '.':
			if t, ok := s.scanLabel(); ok {
				return t, true
			}
		case c >= '0' && c <= '9':
			return s.scanNumber(), true
		case unicode.IsLetter(c):
			return s.scanIdentifier(), true
		default:
			s.pos += size
		}
	}

	return Token{}, false
}

/// Decode the rune at the scan position.
///
func (s *Scanner) peek() (rune, int) {
	return utf8.DecodeRune(s.src[s.pos:])
}

/// Skip to the end of the line, leaving the newline to be counted.
///
func (s *Scanner) skipComment() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
}

/// Scan a label. A '.' that isn't followed by a name is dropped.
///
func (s *Scanner) scanLabel() (Token, bool) {
	s.pos++

	// the label must name something
	if c, _ := s.peek(); s.pos >= len(s.src) || !isIdentRune(c) {
		return Token{}, false
	}

	t := s.scanIdentifier()

	return Token{Kind: TokenLabel, Text: t.Text, Line: t.Line}, true
}

/// Scan a decimal literal. Only digits are consumed.
///
func (s *Scanner) scanNumber() Token {
	i := s.pos

	for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		s.pos++
	}

	return Token{Kind: TokenNumber, Text: string(s.src[i:s.pos]), Line: s.line}
}

/// Scan an identifier: mnemonic, register, or keyword.
///
func (s *Scanner) scanIdentifier() Token {
	i := s.pos

	for s.pos < len(s.src) {
		c, size := s.peek()
		if !isIdentRune(c) {
			break
		}

		s.pos += size
	}

	return Token{Kind: TokenIdent, Text: string(s.src[i:s.pos]), Line: s.line}
}

func isIdentRune(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
