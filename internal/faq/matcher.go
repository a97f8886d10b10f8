// Package faq holds the canned-answer knowledge base and the keyword matcher
// that is tried before a conversation is sent to the model.
package faq

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"

	"sitechat-backend/internal/models"
)

// Pass identifies which stage of Match produced the answer.
type Pass string

const (
	PassRegex Pass = "regex"
	PassScore Pass = "score"
	PassNone  Pass = "none"
)

type Result struct {
	Answer string
	Pass   Pass
}

func (r Result) Matched() bool { return r.Pass != PassNone }

type entry struct {
	models.FAQEntry
	re       *regexp.Regexp // nil when the pattern is not a valid expression
	keywords []string
}

// KnowledgeBase is an ordered, immutable set of FAQ entries. It is safe for
// concurrent use.
type KnowledgeBase struct {
	entries []entry
}

// New compiles the word-boundary expression for every entry. The pattern is
// used verbatim as regex source; entries whose pattern does not compile are
// skipped by the regex pass but still take part in keyword scoring.
func New(items []models.FAQEntry) *KnowledgeBase {
	kb := &KnowledgeBase{entries: make([]entry, 0, len(items))}
	for _, it := range items {
		e := entry{FAQEntry: it, keywords: strings.Split(it.Pattern, "|")}
		re, err := regexp.Compile(`(?i)\b(` + it.Pattern + `)\b`)
		if err != nil {
			log.Printf("faq: pattern %q is not a valid expression, keyword scoring only: %v", it.Pattern, err)
		} else {
			e.re = re
		}
		kb.entries = append(kb.entries, e)
	}
	return kb
}

// Empty is the knowledge base used before the real one has loaded.
func Empty() *KnowledgeBase { return &KnowledgeBase{} }

func Parse(r io.Reader) (*KnowledgeBase, error) {
	var items []models.FAQEntry
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode FAQ data: %w", err)
	}
	return New(items), nil
}

func LoadFile(path string) (*KnowledgeBase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FAQ file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (kb *KnowledgeBase) Len() int { return len(kb.entries) }

// Entries returns a copy of the entries in priority order.
func (kb *KnowledgeBase) Entries() []models.FAQEntry {
	out := make([]models.FAQEntry, len(kb.entries))
	for i, e := range kb.entries {
		out[i] = e.FAQEntry
	}
	return out
}

// Match returns the canned answer for query, if any.
//
// The regex pass walks entries in order and returns the first whose pattern
// matches as a whole word or phrase. Failing that, each entry is scored by how
// many of its pipe-separated keywords occur as plain substrings of the
// lower-cased query; the first entry with the highest non-zero score wins.
func (kb *KnowledgeBase) Match(query string) Result {
	q := strings.ToLower(query)

	for _, e := range kb.entries {
		if e.re != nil && e.re.MatchString(q) {
			return Result{Answer: e.Answer, Pass: PassRegex}
		}
	}

	bestScore, best := 0, -1
	for i, e := range kb.entries {
		score := 0
		for _, k := range e.keywords {
			if strings.Contains(q, k) {
				score++
			}
		}
		if score > bestScore {
			bestScore, best = score, i
		}
	}
	if best >= 0 {
		return Result{Answer: kb.entries[best].Answer, Pass: PassScore}
	}

	return Result{Pass: PassNone}
}
