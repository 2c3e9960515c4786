package fallback

import (
	_ "embed"
	"slices"
	"sync"

	"contractreview-backend/models"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed playbooks.yaml
var embeddedPlaybooks []byte

// Solution is the guidance for one solution family
type Solution struct {
	Key        string   `yaml:"key"`
	Title      string   `yaml:"title"`
	Aliases    []string `yaml:"aliases"`
	Priorities []string `yaml:"priorities"`
	Controls   []string `yaml:"controls"`
	Gaps       []string `yaml:"gaps"`
}

// Playbooks holds the solution guidance used for solution alignment
type Playbooks struct {
	Generic   Solution   `yaml:"generic"`
	Solutions []Solution `yaml:"solutions"`
}

// ParsePlaybooks decodes playbooks from YAML
func ParsePlaybooks(data []byte) (*Playbooks, error) {
	var p Playbooks
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "failed to parse playbooks")
	}
	if p.Generic.Key == "" {
		p.Generic.Key = "general"
	}
	for i := range p.Solutions {
		s := &p.Solutions[i]
		if s.Key == "" {
			return nil, eris.Errorf("playbook %d has no key", i)
		}
		s.Key = normalizeKey(s.Key, "")
		for j, alias := range s.Aliases {
			s.Aliases[j] = normalizeKey(alias, "")
		}
	}
	return &p, nil
}

var defaultPlaybooks = sync.OnceValue(func() *Playbooks {
	p, err := ParsePlaybooks(embeddedPlaybooks)
	if err != nil {
		panic(err)
	}
	return p
})

// DefaultPlaybooks returns the embedded playbooks
func DefaultPlaybooks() *Playbooks {
	return defaultPlaybooks()
}

// Find returns the solution whose key or alias matches any candidate, tried
// in order.
func (p *Playbooks) Find(candidates ...string) (*Solution, bool) {
	for _, c := range candidates {
		key := normalizeKey(c, "")
		if key == "" {
			continue
		}
		for i := range p.Solutions {
			s := &p.Solutions[i]
			if s.Key == key || slices.Contains(s.Aliases, key) {
				return s, true
			}
		}
	}
	return nil, false
}

// Align builds the solution alignment block. Unmatched solutions get the
// generic guidance and a nil Solution.
func (p *Playbooks) Align(solutionKey, solutionTitle, contractType string) (*Solution, *models.SolutionAlignment) {
	if s, ok := p.Find(solutionKey, solutionTitle, contractType); ok {
		return s, &models.SolutionAlignment{
			SolutionKey:   s.Key,
			SolutionTitle: s.Title,
			Matched:       true,
			Priorities:    orEmpty(slices.Clone(s.Priorities)),
			Controls:      orEmpty(slices.Clone(s.Controls)),
			Gaps:          orEmpty(slices.Clone(s.Gaps)),
		}
	}

	title := solutionTitle
	if title == "" {
		title = p.Generic.Title
	}
	return nil, &models.SolutionAlignment{
		SolutionKey:   normalizeKey(solutionKey, p.Generic.Key),
		SolutionTitle: title,
		Matched:       false,
		Priorities:    orEmpty(slices.Clone(p.Generic.Priorities)),
		Controls:      orEmpty(slices.Clone(p.Generic.Controls)),
		Gaps:          orEmpty(slices.Clone(p.Generic.Gaps)),
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
