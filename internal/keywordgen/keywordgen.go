// Package keywordgen proposes keyword sets for a QA record. The
// production path is a remote LLM collaborator (out of scope for the
// core per §1/§6 — consumed only as an interface); Heuristic is a
// local, network-free fallback so the repository runs standalone.
//
// The core never calls Generator from the Reconciler: keywords are
// corpus data, an input to fingerprinting, not an output of indexing.
// Suggestions from a Generator are meant to be reviewed and written
// back through the Corpus Store's CRUD surface like any other edit.
package keywordgen

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/kxddry/ragqa/internal/domain"
)

// Generator proposes keywords for a QA record. Implementations backed
// by a remote LLM are expected to satisfy this interface; the core
// ships only Heuristic.
type Generator interface {
	Suggest(ctx context.Context, record domain.QARecord) ([]string, error)
}

// maxSuggestions bounds Heuristic's output so a single record doesn't
// flood the keywords field with every non-stopword token it contains.
const maxSuggestions = 8

// tokenPattern and stopwords are the same tokenizer the teacher's
// tfidf and frequency summarizer packages use, reused here for
// candidate extraction instead of sentence ranking.
var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

var stopwords = buildStopwords([]string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to",
	"of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were",
	"be", "been", "being", "it", "this", "that", "these", "those", "from",
	"up", "down", "over", "under", "again", "further", "than", "so", "such",
	"into", "about", "between", "through", "during", "before", "after",
	"above", "below", "out", "off", "own", "same", "too", "very", "can",
	"will", "just", "don", "should", "now",
})

func buildStopwords(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Heuristic extracts candidate keywords from a record's question and
// answer: tokens are lowercased, stopwords are dropped, and the
// remainder is ranked by frequency (ties broken by first appearance)
// and truncated to maxSuggestions. It never makes a network call and
// never fails.
type Heuristic struct{}

// NewHeuristic returns a ready-to-use Heuristic generator.
func NewHeuristic() Heuristic { return Heuristic{} }

// Suggest implements Generator. ctx is accepted for interface
// compatibility with remote implementations; Heuristic ignores it.
func (Heuristic) Suggest(_ context.Context, record domain.QARecord) ([]string, error) {
	text := record.Question + " " + record.Answer
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)

	type candidate struct {
		word  string
		count int
		first int
	}
	order := make([]string, 0, len(tokens))
	counts := make(map[string]int, len(tokens))
	firstSeen := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, ok := counts[tok]; !ok {
			order = append(order, tok)
			firstSeen[tok] = i
		}
		counts[tok]++
	}

	candidates := make([]candidate, 0, len(order))
	for _, w := range order {
		candidates = append(candidates, candidate{word: w, count: counts[w], first: firstSeen[w]})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].first < candidates[j].first
	})

	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.word
	}
	return out, nil
}
