package summary

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"formulate-backend/src/models"
)

const (
	wordCloudSize = 30
	minWordRunes  = 3
)

// wordCounter counts tokens across answers and remembers when each token was
// first seen so ties resolve the same way on every run.
type wordCounter struct {
	counts map[string]int
	order  []string
}

func newWordCounter() *wordCounter {
	return &wordCounter{counts: make(map[string]int)}
}

func (w *wordCounter) add(text string) {
	for _, tok := range tokenize(text) {
		if _, seen := w.counts[tok]; !seen {
			w.order = append(w.order, tok)
		}
		w.counts[tok]++
	}
}

// top returns at most n tokens by count, ties in first-seen order.
func (w *wordCounter) top(n int) []models.WordCount {
	out := make([]models.WordCount, 0, len(w.order))
	for _, tok := range w.order {
		out = append(out, models.WordCount{Word: tok, Count: w.counts[tok]})
	}
	// stable sort keeps first-seen order among equal counts
	slices.SortStableFunc(out, func(a, b models.WordCount) int {
		return b.Count - a.Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// tokenize lower-cases text, drops everything but letters, digits and
// whitespace, splits on whitespace and keeps tokens of three runes or more.
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, text)

	var out []string
	for _, tok := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(tok) >= minWordRunes {
			out = append(out, tok)
		}
	}
	return out
}
