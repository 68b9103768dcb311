package mdwrap

// Token is a maximal run of characters sharing one classification.
type Token struct {
	Kind TokenKind
	Text string
}

// TokenKind classifies a token as text or whitespace.
type TokenKind uint8

const (
	// TokenText represents a run of non-whitespace characters. When hyphen
	// breaking is enabled the run ends after a run of hyphens.
	TokenText TokenKind = iota + 1
	// TokenSpace represents a run of whitespace characters, line breaks included.
	TokenSpace
)

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "Text"
	case TokenSpace:
		return "Space"
	default:
		return "None"
	}
}
