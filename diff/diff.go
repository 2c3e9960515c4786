// Package diff computes line- and token-level longest-common-subsequence
// diffs and renders them as tracked changes.
package diff

import (
	"strings"
	"unicode"
)

// ChangeType classifies a diff unit
type ChangeType string

const (
	Equal   ChangeType = "equal"
	Added   ChangeType = "added"
	Removed ChangeType = "removed"

	// Modified only appears in rendered blocks, for paired removed/added lines
	Modified ChangeType = "modified"
)

// Chunk is a run of consecutive lines sharing a change type
type Chunk struct {
	Type  ChangeType `json:"type"`
	Lines []string   `json:"lines"`
}

// Token is a single word or whitespace run with its change type
type Token struct {
	Type  ChangeType `json:"type"`
	Token string     `json:"token"`
}

// DefaultMaxCells bounds the LCS table. Beyond it the engine returns a
// degraded diff instead of allocating a quadratic table.
const DefaultMaxCells = 4_000_000

// Engine computes diffs under a table size cap
type Engine struct {
	maxCells int
}

// Option configures an Engine
type Option func(*Engine)

// WithMaxCells sets the LCS table cap. Zero or negative disables the cap.
func WithMaxCells(n int) Option {
	return func(e *Engine) {
		e.maxCells = n
	}
}

// NewEngine creates a diff engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{maxCells: DefaultMaxCells}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// LineDiff diffs two texts line by line using the default engine
func LineDiff(original, updated string) []Chunk {
	return defaultEngine.LineDiff(original, updated)
}

// TokenDiff diffs two texts word by word using the default engine
func TokenDiff(original, updated string) []Token {
	return defaultEngine.TokenDiff(original, updated)
}

// LineDiff splits both texts on "\n" and returns coalesced chunks.
// Rejoining the equal+removed lines of the result with "\n" yields original,
// and equal+added lines yield updated.
func (e *Engine) LineDiff(original, updated string) []Chunk {
	chunks, _ := e.lineDiff(original, updated)
	return chunks
}

func (e *Engine) lineDiff(original, updated string) ([]Chunk, bool) {
	switch {
	case original == "" && updated == "":
		return []Chunk{}, false
	case original == "":
		return []Chunk{{Type: Added, Lines: strings.Split(updated, "\n")}}, false
	case updated == "":
		return []Chunk{{Type: Removed, Lines: strings.Split(original, "\n")}}, false
	}

	ops, degraded := e.script(strings.Split(original, "\n"), strings.Split(updated, "\n"))

	chunks := make([]Chunk, 0)
	for _, o := range ops {
		if n := len(chunks); n > 0 && chunks[n-1].Type == o.typ {
			chunks[n-1].Lines = append(chunks[n-1].Lines, o.value)
			continue
		}
		chunks = append(chunks, Chunk{Type: o.typ, Lines: []string{o.value}})
	}
	return chunks, degraded
}

// TokenDiff tokenizes both texts into words and whitespace runs and diffs
// the token sequences. Concatenating equal+removed tokens yields original;
// equal+added tokens yield updated.
func (e *Engine) TokenDiff(original, updated string) []Token {
	ops, _ := e.script(Tokenize(original), Tokenize(updated))

	tokens := make([]Token, len(ops))
	for i, o := range ops {
		tokens[i] = Token{Type: o.typ, Token: o.value}
	}
	return tokens
}

// Tokenize splits s into alternating runs of whitespace and non-whitespace.
// strings.Join(Tokenize(s), "") == s for every s.
func Tokenize(s string) []string {
	tokens := make([]string, 0)
	start := 0
	inSpace := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if i > start && space != inSpace {
			tokens = append(tokens, s[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}
