package formula

import (
	"fmt"
	"strconv"
)

// TokenType represents the closed set of lexemes a formula can contain
type TokenType int

const (
	TokenNumber TokenType = iota
	TokenOperator
	TokenLeftParen
	TokenRightParen
	TokenComma
	TokenFunction
	TokenCell
)

var tokenTypeNames = map[TokenType]string{
	TokenNumber:     "Number",
	TokenOperator:   "Operator",
	TokenLeftParen:  "LeftParen",
	TokenRightParen: "RightParen",
	TokenComma:      "Comma",
	TokenFunction:   "Function",
	TokenCell:       "Cell",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// character classification constants
const (
	charTab        = '\t'
	charNewline    = '\n'
	charReturn     = '\r'
	charSpace      = ' '
	charLParen     = '('
	charRParen     = ')'
	charComma      = ','
	charPeriod     = '.'
	charPlus       = '+'
	charMinus      = '-'
	charAsterisk   = '*'
	charSlash      = '/'
	charPercent    = '%'
	charNegate     = '~' // unary minus marker produced by NormalizeUnary
	negateOperator = "~"
)

// Token represents a lexical token with position information. Number is
// only meaningful for TokenNumber.
type Token struct {
	Type   TokenType
	Value  string
	Number float64
	Pos    int // byte position in input
}

func (t Token) String() string {
	return t.Value
}

// Lexer tokenizes a normalized, preprocessed formula
type Lexer struct {
	input  string
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given formula input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		tokens: []Token{},
	}
}

// Tokenize tokenizes the entire input, failing on the first character
// that does not start a lexeme
func (l *Lexer) Tokenize() ([]Token, error) {
	l.pos = 0
	l.tokens = l.tokens[:0]

	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			break
		}
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
	}

	return l.tokens, nil
}

// Tokenize is a shorthand for NewLexer(input).Tokenize()
func Tokenize(input string) ([]Token, error) {
	return NewLexer(input).Tokenize()
}

func (l *Lexer) nextToken() (Token, error) {
	startPos := l.pos
	ch := l.input[l.pos]

	if isDigit(ch) || ch == charPeriod {
		return l.scanNumber()
	}

	switch ch {
	case charLParen:
		l.pos++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}, nil
	case charRParen:
		l.pos++
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}, nil
	case charComma:
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: startPos}, nil
	case charPlus, charMinus, charAsterisk, charSlash, charPercent, charNegate:
		l.pos++
		return Token{Type: TokenOperator, Value: string(ch), Pos: startPos}, nil
	}

	if isLetter(ch) {
		return l.scanWord(), nil
	}

	return Token{}, newPositionedError(ErrorKindLexical, startPos, "unexpected character %q", rune(ch))
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && isWhitespace(l.input[l.pos]) {
		l.pos++
	}
}

// scanNumber accumulates digits and periods greedily
func (l *Lexer) scanNumber() (Token, error) {
	startPos := l.pos
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == charPeriod) {
		l.pos++
	}

	text := l.input[startPos:l.pos]
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, newPositionedError(ErrorKindLexical, startPos, "malformed number %q", text)
	}
	return Token{Type: TokenNumber, Value: text, Number: value, Pos: startPos}, nil
}

// scanWord scans a cell label (uppercase letters followed by digits) or a
// function name (a run of letters)
func (l *Lexer) scanWord() Token {
	startPos := l.pos
	for l.pos < len(l.input) && isLetter(l.input[l.pos]) {
		l.pos++
	}
	letters := l.input[startPos:l.pos]

	if isUpperWord(letters) && l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		return Token{Type: TokenCell, Value: l.input[startPos:l.pos], Pos: startPos}
	}

	return Token{Type: TokenFunction, Value: letters, Pos: startPos}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isUpper(ch byte) bool {
	return ch >= 'A' && ch <= 'Z'
}

func isUpperWord(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isUpper(s[i]) {
			return false
		}
	}
	return len(s) > 0
}

func isWhitespace(ch byte) bool {
	return ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn
}

func isOperatorChar(ch byte) bool {
	switch ch {
	case charPlus, charMinus, charAsterisk, charSlash, charPercent, charNegate:
		return true
	}
	return false
}
