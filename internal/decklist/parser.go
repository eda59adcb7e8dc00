// Package decklist parses text deck exports (Moxfield, Archidekt, Arena style)
// into Commander, Deck and Sideboard sections.
package decklist

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyDecklist is returned when the input holds no non-blank line.
var ErrEmptyDecklist = errors.New("empty deck list")

// metadataPrefix starts a metadata block ("About", "Name ...") that is
// ignored until the next section header.
const metadataPrefix = "About"

var sectionHeaders = map[string]Section{
	"Commander": Commander,
	"Deck":      Deck,
	"Sideboard": Sideboard,
}

// typeHeaders are the per-type groupings some exporters emit inside the
// main deck.
var typeHeaders = []string{
	"Creatures",
	"Planeswalkers",
	"Spells",
	"Artifacts",
	"Enchantments",
	"Lands",
}

var letterRegex = regexp.MustCompile(`[a-zA-Z]`)

// Options controls parser behavior.
type Options struct {
	// ExtendedHeaders also recognizes type group headers (Creatures, Lands, ...)
	// and folds them into the Deck section.
	ExtendedHeaders bool
}

// Parser converts deck list lines into sections.
type Parser struct {
	headers map[string]bool
	options Options
}

// NewParser creates a new deck list parser.
func NewParser(options Options) *Parser {
	headers := make(map[string]bool, len(typeHeaders))
	if options.ExtendedHeaders {
		for _, h := range typeHeaders {
			headers[h] = true
		}
	}
	return &Parser{
		headers: headers,
		options: options,
	}
}

// Parse parses lines with the default options.
func Parse(lines []string) Sections {
	return NewParser(Options{}).Parse(lines)
}

// ParseText parses a pasted deck list with the default options.
func ParseText(text string) (Sections, error) {
	return NewParser(Options{}).ParseText(text)
}

// SplitLines splits text into trimmed, non-blank lines.
func SplitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ParseText splits text into lines and parses them.
func (p *Parser) ParseText(text string) (Sections, error) {
	lines := SplitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyDecklist
	}
	return p.Parse(lines), nil
}

// Parse assigns every card line to exactly one section in a single pass.
//
// Header lines switch the current section and are never entries. Until a
// header is seen after an "About" line everything is skipped. The first
// card-like line of the document is taken as the commander, even when no
// Commander header precedes it, and following lines go to Deck.
func (p *Parser) Parse(lines []string) Sections {
	sections := Sections{
		Commander: make([]Entry, 0),
		Deck:      make([]Entry, 0),
		Sideboard: make([]Entry, 0),
	}

	var current Section
	skip := false
	rule := &commanderRule{}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, metadataPrefix) {
			skip = true
			continue
		}

		if section, ok := p.header(line, current); ok {
			skip = false
			current = section
			continue
		}

		if skip {
			continue
		}

		if rule.claim(line) {
			sections[Commander] = append(sections[Commander], NewEntry(line))
			current = Deck
			continue
		}

		if current != "" {
			sections[current] = append(sections[current], NewEntry(line))
		}
	}

	return sections
}

// header reports whether line is a section header and which section it
// switches to.
func (p *Parser) header(line string, current Section) (Section, bool) {
	if section, ok := sectionHeaders[line]; ok {
		return section, true
	}
	if p.headers[line] {
		if current == Sideboard {
			return Sideboard, true
		}
		return Deck, true
	}
	return "", false
}

// commanderRule takes the first card-like line of a document as the
// commander. Exports that omit the "Commander" header still list the
// commander first. It fires at most once per parse.
type commanderRule struct {
	fired bool
}

func (r *commanderRule) claim(line string) bool {
	if r.fired || !letterRegex.MatchString(line) {
		return false
	}
	r.fired = true
	return true
}
