package diff

import (
	"strings"

	"contractreview-backend/models"

	"golang.org/x/net/html"
)

// LinePair is a removed line matched with the added line that replaced it
type LinePair struct {
	Original string  `json:"original"`
	Updated  string  `json:"updated"`
	Tokens   []Token `json:"tokens"`
}

// Block is one unit of a tracked-changes view
type Block struct {
	Type  ChangeType `json:"type"`
	Lines []string   `json:"lines,omitempty"`
	Pairs []LinePair `json:"pairs,omitempty"`
}

// Stats counts lines by change type
type Stats struct {
	Unchanged int `json:"unchanged"`
	Added     int `json:"added"`
	Removed   int `json:"removed"`
}

// Summarize counts the lines in a line diff
func Summarize(chunks []Chunk) Stats {
	var s Stats
	for _, c := range chunks {
		switch c.Type {
		case Equal:
			s.Unchanged += len(c.Lines)
		case Added:
			s.Added += len(c.Lines)
		case Removed:
			s.Removed += len(c.Lines)
		}
	}
	return s
}

// TrackChanges diffs two texts using the default engine and refines
// replaced lines at token level.
func TrackChanges(original, updated string) []Block {
	return defaultEngine.TrackChanges(original, updated)
}

// TrackChanges computes the line diff and turns every removed chunk that is
// directly followed by an added chunk into a modified block whose lines are
// paired and token-diffed. Lines left over on either side stay removed or
// added. No refinement happens when the line diff hit the cell cap.
func (e *Engine) TrackChanges(original, updated string) []Block {
	chunks, degraded := e.lineDiff(original, updated)

	blocks := make([]Block, 0, len(chunks))
	for i := 0; i < len(chunks); i++ {
		c := chunks[i]
		if !degraded && c.Type == Removed && i+1 < len(chunks) && chunks[i+1].Type == Added {
			blocks = append(blocks, e.pairBlocks(c.Lines, chunks[i+1].Lines)...)
			i++
			continue
		}
		blocks = append(blocks, Block{Type: c.Type, Lines: c.Lines})
	}
	return blocks
}

func (e *Engine) pairBlocks(removed, added []string) []Block {
	n := min(len(removed), len(added))

	pairs := make([]LinePair, n)
	for k := 0; k < n; k++ {
		pairs[k] = LinePair{
			Original: removed[k],
			Updated:  added[k],
			Tokens:   e.TokenDiff(removed[k], added[k]),
		}
	}

	blocks := []Block{{Type: Modified, Pairs: pairs}}
	if len(removed) > n {
		blocks = append(blocks, Block{Type: Removed, Lines: removed[n:]})
	}
	if len(added) > n {
		blocks = append(blocks, Block{Type: Added, Lines: added[n:]})
	}
	return blocks
}

// RenderHTML renders tracked-changes blocks as HTML paragraphs with
// <del> and <ins> markup.
func RenderHTML(blocks []Block) string {
	var b strings.Builder
	for _, block := range blocks {
		switch block.Type {
		case Equal:
			for _, line := range block.Lines {
				writeLine(&b, "diff-equal", html.EscapeString(line))
			}
		case Removed:
			for _, line := range block.Lines {
				writeLine(&b, "diff-removed", "<del>"+html.EscapeString(line)+"</del>")
			}
		case Added:
			for _, line := range block.Lines {
				writeLine(&b, "diff-added", "<ins>"+html.EscapeString(line)+"</ins>")
			}
		case Modified:
			for _, pair := range block.Pairs {
				writeLine(&b, "diff-modified", renderTokens(pair.Tokens))
			}
		}
	}
	return b.String()
}

// renderTokens groups consecutive tokens of the same type into one element
func renderTokens(tokens []Token) string {
	var b strings.Builder
	for i := 0; i < len(tokens); {
		j := i
		var run strings.Builder
		for j < len(tokens) && tokens[j].Type == tokens[i].Type {
			run.WriteString(tokens[j].Token)
			j++
		}
		text := html.EscapeString(run.String())
		switch tokens[i].Type {
		case Removed:
			b.WriteString("<del>" + text + "</del>")
		case Added:
			b.WriteString("<ins>" + text + "</ins>")
		default:
			b.WriteString(text)
		}
		i = j
	}
	return b.String()
}

func writeLine(b *strings.Builder, class, content string) {
	b.WriteString(`<p class="`)
	b.WriteString(class)
	b.WriteString(`">`)
	b.WriteString(content)
	b.WriteString("</p>")
}

// PreviewHTML renders the before, after and tracked-changes fragments for a
// clause edit.
func PreviewHTML(previous, updated string) models.PreviewHTML {
	return models.PreviewHTML{
		Previous: paragraphs(previous),
		Updated:  paragraphs(updated),
		Diff:     RenderHTML(TrackChanges(previous, updated)),
	}
}

func paragraphs(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	return b.String()
}
