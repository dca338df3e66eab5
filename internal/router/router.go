// Package router picks a destination for a recording from its lead words.
package router

import "strings"

// Kind is the type of destination a rule sends recordings to.
type Kind int

const (
	KindFolder Kind = iota
	KindJournal
)

func (k Kind) String() string {
	if k == KindJournal {
		return "journal"
	}
	return "folder"
}

// Destination describes where a matched recording goes.
type Destination struct {
	Kind Kind
	// Dir is the target directory for folder rules.
	Dir string
	// Tag is the journal tag label; empty means no tag reference.
	Tag string
	// Transcribe includes the transcript in the journal block.
	Transcribe bool
	// MaxTranscriptLen drops transcripts longer than this many characters; 0 is unlimited.
	MaxTranscriptLen int
}

// Rule is one entry of the routing table.
type Rule struct {
	Name        string
	Keywords    []string
	Destination Destination
}

// Table holds folder rules followed by journal rules.
type Table struct {
	rules []Rule
}

// NewTable builds a routing table. Folder rules are always evaluated before
// journal rules; within each pool declaration order is kept. Keywords are
// lower-cased and empty keywords are dropped.
func NewTable(folder, journal []Rule) *Table {
	rules := make([]Rule, 0, len(folder)+len(journal))
	for _, r := range folder {
		r.Destination.Kind = KindFolder
		rules = append(rules, normalize(r))
	}
	for _, r := range journal {
		r.Destination.Kind = KindJournal
		rules = append(rules, normalize(r))
	}
	return &Table{rules: rules}
}

func normalize(r Rule) Rule {
	keywords := make([]string, 0, len(r.Keywords))
	for _, kw := range r.Keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
	}
	r.Keywords = keywords
	return r
}

// Rules returns the rules in evaluation order.
func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Route returns the first rule with a keyword matching words.
func (t *Table) Route(words []string) (Rule, bool) {
	joined := Join(words)
	for _, r := range t.rules {
		for _, kw := range r.Keywords {
			if strings.HasPrefix(joined, kw) {
				return r, true
			}
		}
	}
	return Rule{}, false
}

// Join lower-cases words joined with single spaces, the form keywords are matched against.
func Join(words []string) string {
	return strings.ToLower(strings.Join(words, " "))
}

// Match reports whether keyword is a prefix of the joined words.
func Match(words []string, keyword string) bool {
	keyword = strings.ToLower(keyword)
	return keyword != "" && strings.HasPrefix(Join(words), keyword)
}
