// Package extraction segments raw contract text into candidate clauses.
// It is a heuristic: clause boundaries are best-effort evidence.
package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"contractreview-backend/models"
)

const (
	DefaultLimit            = 8
	DefaultMinBlockLength   = 80
	DefaultMinBodyLength    = 60
	DefaultExcerptLength    = 420
	DefaultNormalizedLength = 800

	maxHeadingLength = 80
	ellipsis         = "…"
)

type options struct {
	minBlockLength   int
	minBodyLength    int
	excerptLength    int
	normalizedLength int
	includeFullText  bool
}

// Option tunes clause extraction
type Option func(*options)

// WithMinBlockLength sets the minimum block length in characters
func WithMinBlockLength(n int) Option {
	return func(o *options) { o.minBlockLength = n }
}

// WithMinBodyLength sets the minimum clause body length in characters
func WithMinBodyLength(n int) Option {
	return func(o *options) { o.minBodyLength = n }
}

// WithExcerptLength bounds originalText
func WithExcerptLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.excerptLength = n
		}
	}
}

// WithNormalizedLength bounds normalizedText
func WithNormalizedLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.normalizedLength = n
		}
	}
}

// WithFullText keeps normalizedText unbounded
func WithFullText() Option {
	return func(o *options) { o.includeFullText = true }
}

var (
	blockSeparator   = regexp.MustCompile(`\n[ \t]*\n+`)
	numberedHeading  = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+\S`)
	labelledHeading  = regexp.MustCompile(`(?i)^(?:section|article|clause)\s+(\d+(?:\.\d+)*|[ivxlc]+)\b`)
	referencePattern = regexp.MustCompile(`(?i)\b(section|clause|article)\s+(\d+(?:\.\d+)*)`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

type block struct {
	heading string
	body    string
	number  string
	parent  string
}

// DeriveFromContent extracts clauses with the default settings
func DeriveFromContent(content string) []models.ClauseExtraction {
	return DeriveClauseExtractions(content, DefaultLimit)
}

// DeriveClauseExtractions splits content on blank lines and returns at most
// limit candidate clauses. A non-positive limit means DefaultLimit.
func DeriveClauseExtractions(content string, limit int, opts ...Option) []models.ClauseExtraction {
	o := options{
		minBlockLength:   DefaultMinBlockLength,
		minBodyLength:    DefaultMinBodyLength,
		excerptLength:    DefaultExcerptLength,
		normalizedLength: DefaultNormalizedLength,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	clauses := make([]models.ClauseExtraction, 0)
	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if content == "" {
		return clauses
	}

	raw := blockSeparator.Split(content, -1)
	pendingHeading := ""
	for i, text := range raw {
		if len(clauses) >= limit {
			break
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		// A heading standing alone becomes the heading of the next block
		if !strings.Contains(text, "\n") && isHeading(text) && i+1 < len(raw) {
			pendingHeading = text
			continue
		}

		b := splitBlock(text)
		if pendingHeading != "" {
			// A block with its own heading keeps the stand-alone one as parent
			if b.heading == "" {
				b.heading = pendingHeading
				b.number = headingNumber(pendingHeading)
			} else {
				b.parent = collapse(pendingHeading)
			}
			text = pendingHeading + "\n" + text
			pendingHeading = ""
		}

		if utf8.RuneCountInString(text) < o.minBlockLength {
			continue
		}
		body := collapse(b.body)
		if utf8.RuneCountInString(body) < o.minBodyLength {
			continue
		}

		clauses = append(clauses, buildClause(len(clauses), b, body, o))
	}

	return clauses
}

func buildClause(index int, b block, body string, o options) models.ClauseExtraction {
	position := index + 1

	clauseID := fmt.Sprintf("parsed-clause-%d", position)
	location := fmt.Sprintf("Paragraph %d", position)
	if b.number != "" {
		clauseID = "parsed-" + b.number
		location = "Section " + b.number
	}

	if b.parent != "" {
		location = b.parent + " / " + location
	}

	title := collapse(b.heading)
	if title == "" {
		title = fmt.Sprintf("Clause %d", position)
	}

	normalized := body
	if !o.includeFullText {
		normalized = truncate(body, o.normalizedLength)
	}

	return models.ClauseExtraction{
		ID:             fmt.Sprintf("clause-%d", position),
		ClauseID:       clauseID,
		Title:          title,
		Category:       Categorize(title + " " + body),
		OriginalText:   truncate(body, o.excerptLength),
		NormalizedText: normalized,
		Importance:     Importance(title + " " + body),
		Location:       location,
		References:     references(body, b.number),
		SourceText:     strings.TrimSpace(b.body),
	}
}

// splitBlock separates a heading line from the clause body. Single-line
// blocks keep their whole text as body; a long numbered line is titled by
// its opening words.
func splitBlock(text string) block {
	lines := strings.SplitN(text, "\n", 2)
	first := strings.TrimSpace(lines[0])

	if len(lines) == 1 {
		b := block{body: first}
		if numberedHeading.MatchString(first) || labelledHeading.MatchString(first) {
			b.number = headingNumber(first)
			b.heading = shortTitle(first)
		}
		return b
	}

	if isHeading(first) {
		return block{heading: first, body: strings.TrimSpace(lines[1]), number: headingNumber(first)}
	}
	return block{body: text}
}

func isHeading(line string) bool {
	if utf8.RuneCountInString(line) > maxHeadingLength {
		return false
	}
	return numberedHeading.MatchString(line) || labelledHeading.MatchString(line) || isAllCaps(line)
}

func isAllCaps(line string) bool {
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 3
}

func headingNumber(line string) string {
	if m := numberedHeading.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := labelledHeading.FindStringSubmatch(line); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

func shortTitle(line string) string {
	words := strings.Fields(line)
	if len(words) > 8 {
		words = words[:8]
	}
	return truncate(strings.Join(words, " "), maxHeadingLength)
}

func references(body, own string) []string {
	refs := make([]string, 0)
	seen := map[string]bool{}
	for _, m := range referencePattern.FindAllStringSubmatch(body, -1) {
		if m[2] == own {
			continue
		}
		ref := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:]) + " " + m[2]
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// truncate cuts s to at most limit runes, ending in an ellipsis when cut
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimRightFunc(string(runes[:limit-1]), unicode.IsSpace)
	return cut + ellipsis
}
