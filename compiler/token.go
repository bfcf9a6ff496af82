package compiler

// ---------------------------------------------------------------------------
// Token types for the s-expression lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals and names
	TokenInteger    // 42, -7
	TokenFloat      // 3.14, -0.5
	TokenIdentifier // foo, lambda, fix, if, true, false
	TokenBuiltin    // #builtin_+, #builtin_-, #builtin_<

	// Delimiters
	TokenLParen // (
	TokenRParen // )
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenError:      "ERROR",
	TokenInteger:    "INTEGER",
	TokenFloat:      "FLOAT",
	TokenIdentifier: "IDENTIFIER",
	TokenBuiltin:    "BUILTIN",
	TokenLParen:     "(",
	TokenRParen:     ")",
}

// String returns the name of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Token is a single lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}
