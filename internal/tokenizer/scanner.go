package tokenizer

import "unicode"

// Kind classifies a scanned token.
type Kind int

const (
	KindWhitespace Kind = iota
	KindWord
	KindSymbol
)

// Token is one run of same-class characters in the scanned text.
// Start and End are byte offsets into the source string. ID groups
// identical token texts for highlighting and is only meaningful when the
// token is not whitespace; ids are assigned per Scan call in first-
// occurrence order starting at 1 and are not vocabulary ids.
type Token struct {
	Kind  Kind   `json:"-"`
	ID    int    `json:"id,omitempty"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Identified reports whether the token carries a grouping id.
func (t Token) Identified() bool { return t.Kind != KindWhitespace }

// Scan splits text into tokens using three mutually exclusive character
// classes, in priority order: whitespace runs, word runs (letters, digits,
// underscore, hyphen, quotes, at-sign), and runs of any other non-space
// characters. Concatenating all token texts in order reconstructs text
// exactly. Empty input yields no tokens.
func Scan(text string) []Token {
	if text == "" {
		return nil
	}

	var tokens []Token
	ids := make(map[string]int)

	runStart := 0
	runKind := Kind(-1)
	for i, r := range text {
		k := classify(r)
		if runKind < 0 {
			runKind = k
			continue
		}
		if k == runKind {
			continue
		}
		tokens = append(tokens, makeToken(text, runStart, i, runKind, ids))
		runStart, runKind = i, k
	}
	tokens = append(tokens, makeToken(text, runStart, len(text), runKind, ids))
	return tokens
}

func makeToken(text string, start, end int, kind Kind, ids map[string]int) Token {
	t := Token{Kind: kind, Text: text[start:end], Start: start, End: end}
	if kind == KindWhitespace {
		return t
	}
	id, ok := ids[t.Text]
	if !ok {
		id = len(ids) + 1
		ids[t.Text] = id
	}
	t.ID = id
	return t
}

// classify assigns a rune to its scanner class.
func classify(r rune) Kind {
	switch {
	case unicode.IsSpace(r):
		return KindWhitespace
	case unicode.IsLetter(r) || unicode.IsDigit(r):
		return KindWord
	case r == '_' || r == '-' || r == '\'' || r == '"' || r == '@':
		return KindWord
	default:
		return KindSymbol
	}
}
