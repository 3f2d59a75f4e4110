// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize produces extractive summaries of paper abstracts.
//
// Sentences are scored by the normalized frequency of their significant
// terms across the whole abstract. The highest scoring sentences are kept
// and re-emitted in their original order.
package summarize

import (
	"sort"
	"strings"

	"github.com/NikkiXIV/sci-paper-finder/internal/textutil"
)

// Lengths used when a non-positive value is given.
const (
	DefaultSentences     = 3
	DefaultKeywords      = 10
	DefaultMinWordLength = 3
)

// Summarizer holds the target summary length and keyword settings. The zero
// value uses the package defaults.
type Summarizer struct {
	Sentences     int
	KeywordCount  int
	MinWordLength int
}

// Keywords returns up to s.KeywordCount keywords of text.
func (s Summarizer) Keywords(text string) []string {
	return Keywords(text, s.KeywordCount, s.MinWordLength)
}

// Keywords returns the n most frequent words of text that are not
// stopwords or numbers and have at least minLen runes. Ties keep the order
// in which the words first appear. Text without such words yields nil.
func Keywords(text string, n, minLen int) []string {
	if n <= 0 {
		n = DefaultKeywords
	}
	if minLen <= 0 {
		minLen = DefaultMinWordLength
	}

	freq := make(map[string]int)
	var order []string
	for _, w := range textutil.Words(text, minLen) {
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// Summarize reduces abstract to at most s.Sentences sentences.
func (s Summarizer) Summarize(abstract string) string {
	return Summarize(abstract, s.Sentences)
}

// Summarize reduces abstract to its n most significant sentences. An
// abstract with n or fewer sentences is returned unchanged; an empty or
// blank abstract yields "".
func Summarize(abstract string, n int) string {
	if strings.TrimSpace(abstract) == "" {
		return ""
	}
	if n <= 0 {
		n = DefaultSentences
	}

	sentences := textutil.Sentences(abstract)
	if len(sentences) <= n {
		return abstract
	}

	weights := termWeights(abstract)

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		ranked[i] = scored{index: i, score: sentenceScore(sent, weights)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	keep := make([]int, n)
	for i := range keep {
		keep[i] = ranked[i].index
	}
	sort.Ints(keep)

	parts := make([]string, n)
	for i, idx := range keep {
		parts[i] = sentences[idx]
	}
	return strings.Join(parts, " ")
}

// termWeights maps each significant term to its frequency divided by the
// frequency of the most common term.
func termWeights(text string) map[string]float64 {
	freq := make(map[string]int)
	max := 0
	for _, t := range textutil.Words(text, 1) {
		freq[t]++
		if freq[t] > max {
			max = freq[t]
		}
	}

	weights := make(map[string]float64, len(freq))
	for t, f := range freq {
		weights[t] = float64(f) / float64(max)
	}
	return weights
}

// sentenceScore is the mean weight of the sentence's significant terms.
func sentenceScore(sentence string, weights map[string]float64) float64 {
	terms := textutil.Words(sentence, 1)
	if len(terms) == 0 {
		return 0
	}
	var sum float64
	for _, t := range terms {
		sum += weights[t]
	}
	return sum / float64(len(terms))
}
