// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textutil provides the tokenization shared by relevance scoring and
// summarization: lowercase word tokens, an English stopword list, and a
// sentence splitter tuned for scientific abstracts.
package textutil

import (
	"strings"
	"unicode"
)

// stopwords is a compact English stopword list. Membership is checked
// against lowercased tokens.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a about above after again against all also am an and any are as at
		be because been before being below between both but by
		can could did do does doing down during each few for from further
		had has have having he her here hers herself him himself his how
		i if in into is it its itself just me more most my myself
		no nor not now of off on once only or other our ours ourselves out over own
		same she should so some such than that the their theirs them themselves then
		there these they this those through to too under until up upon us
		very was we were what when where which while who whom why will with would
		you your yours yourself yourselves
		via using based use used may might must shall however thus whereas
	`) {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether the lowercased token is a stopword.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// Tokens splits text into lowercase tokens of letters and digits. Every
// other rune is a separator, so "Pre-training" yields "pre" and "training".
// Blank text yields nil.
func Tokens(text string) []string {
	toks := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(toks) == 0 {
		return nil
	}
	return toks
}

// Terms returns the significant tokens of text: Tokens with stopwords
// removed. Numbers are kept, so a query for "1918" matches a title that
// mentions the year.
func Terms(text string) []string {
	var out []string
	for _, tok := range Tokens(text) {
		if IsStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Words returns the Terms of text that are not pure numbers and have at
// least minLen runes. Summaries and keywords are built from Words.
func Words(text string, minLen int) []string {
	var out []string
	for _, tok := range Terms(text) {
		if isNumber(tok) || len([]rune(tok)) < minLen {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// TermSet returns the distinct significant tokens of text.
func TermSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Terms(text) {
		set[t] = struct{}{}
	}
	return set
}

// UniqueTerms returns the distinct significant tokens of text in first-seen order.
func UniqueTerms(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range Terms(text) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func isNumber(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return tok != ""
}

// abbreviations end in a period without ending a sentence.
var abbreviations = map[string]struct{}{
	"e.g.": {}, "i.e.": {}, "et al.": {}, "al.": {}, "fig.": {}, "figs.": {},
	"eq.": {}, "eqs.": {}, "vs.": {}, "cf.": {}, "approx.": {}, "no.": {},
	"dr.": {}, "mr.": {}, "ms.": {}, "st.": {}, "etc.": {}, "ref.": {},
}

// Sentences splits text into trimmed sentences. A sentence ends at '.', '!'
// or '?' (plus any closing quotes or brackets) followed by whitespace or the
// end of the text. Periods that close a known abbreviation or sit between
// digits do not end a sentence.
func Sentences(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	var out []string
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		end := i + 1
		for end < len(runes) && strings.ContainsRune(`"')]`, runes[end]) {
			end++
		}
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			continue
		}
		if r == '.' && endsWithAbbreviation(runes[start:i+1], runes[end:]) {
			continue
		}

		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		start = end
		i = end - 1
	}

	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// endsWithAbbreviation reports whether the period closing sentence belongs
// to an abbreviation rather than ending the sentence. rest is the text that
// follows.
func endsWithAbbreviation(sentence, rest []rune) bool {
	fields := strings.Fields(string(sentence))
	if len(fields) == 0 {
		return false
	}
	last := strings.TrimLeft(fields[len(fields)-1], `("'[`)
	if _, ok := abbreviations[strings.ToLower(last)]; ok {
		return true
	}
	if !isInitial(last) {
		return false
	}
	// A lone capital such as "D." only counts as an initial inside a run of
	// initials ("J. R. Smith"). "vitamin D. Supplementation" ends a sentence.
	if len(fields) > 1 && isInitial(fields[len(fields)-2]) {
		return true
	}
	next := strings.Fields(string(rest))
	return len(next) > 0 && isInitial(next[0])
}

// isInitial reports whether tok is a single capital letter and a period.
func isInitial(tok string) bool {
	r := []rune(tok)
	return len(r) == 2 && unicode.IsUpper(r[0]) && r[1] == '.'
}
