package decklist

import (
	"regexp"
	"strconv"
	"strings"
)

// Section identifies the compartment of a deck list a card belongs to.
type Section string

const (
	Commander Section = "Commander"
	Deck      Section = "Deck"
	Sideboard Section = "Sideboard"
)

// Order is the display and processing order of sections.
var Order = []Section{Commander, Deck, Sideboard}

// Entry is a single card line of a deck list.
type Entry struct {
	Raw      string `json:"raw"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

var (
	// "4 Sol Ring (C21) 263" -> 4
	quantityRegex = regexp.MustCompile(`^(\d+)`)
	// "4 ", "4x " or "x " in front of the card name
	quantityPrefixRegex = regexp.MustCompile(`^(\d+x?|x)\s+`)
)

// NewEntry normalizes a raw card line. Lines that don't look like
// "<qty> <name> (<set>) <number>" fall back to quantity 1 and the whole
// line as name; this never fails.
func NewEntry(raw string) Entry {
	raw = strings.TrimSpace(raw)

	quantity := 1
	if matches := quantityRegex.FindStringSubmatch(raw); matches != nil {
		if q, err := strconv.Atoi(matches[1]); err == nil && q > 0 {
			quantity = q
		}
	}

	name := quantityPrefixRegex.ReplaceAllString(raw, "")
	if idx := strings.Index(name, " ("); idx >= 0 {
		name = name[:idx]
	}

	return Entry{
		Raw:      raw,
		Quantity: quantity,
		Name:     strings.TrimSpace(name),
	}
}

// Sections maps each section to its entries in input order.
type Sections map[Section][]Entry

// Len returns the number of entries across all sections.
func (s Sections) Len() int {
	n := 0
	for _, entries := range s {
		n += len(entries)
	}
	return n
}

// Cards returns the total card count (sum of quantities) of a section.
func (s Sections) Cards(section Section) int {
	n := 0
	for _, e := range s[section] {
		n += e.Quantity
	}
	return n
}
