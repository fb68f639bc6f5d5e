package textprep

import (
	"bufio"
	_ "embed"
	"strings"

	sastrawi "github.com/RadhiFadlillah/go-sastrawi"
)

//go:embed stopwords_id.txt
var indonesianStopwords string

// Stemmer reduces a single word to its root form
type Stemmer interface {
	Stem(word string) string
}

// Stopwords reports whether a word carries no sentiment signal
type Stopwords interface {
	Contains(word string) bool
}

// WordSet is a Stopwords backed by a map
type WordSet map[string]struct{}

// NewWordSet builds a WordSet from words
func NewWordSet(words ...string) WordSet {
	s := make(WordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Contains implements Stopwords
func (s WordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// IndonesianStopwords returns the Sastrawi stopword list
func IndonesianStopwords() WordSet {
	var words []string
	sc := bufio.NewScanner(strings.NewReader(indonesianStopwords))
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			words = append(words, w)
		}
	}
	return NewWordSet(words...)
}

// Pipeline normalizes review text before tokenization. Either step may be
// nil to skip it.
type Pipeline struct {
	stopwords Stopwords
	stemmer   Stemmer
}

// New creates a Pipeline from explicit stopword and stemming steps
func New(stopwords Stopwords, stemmer Stemmer) *Pipeline {
	return &Pipeline{stopwords: stopwords, stemmer: stemmer}
}

// NewIndonesian wires the Sastrawi stopword list and stemmer
func NewIndonesian() *Pipeline {
	return New(IndonesianStopwords(), sastrawi.NewStemmer(sastrawi.DefaultDictionary()))
}

// Preprocess cleans text, drops stopwords and stems what remains
func (p *Pipeline) Preprocess(text string) string {
	text = Clean(text)
	text = p.RemoveStopwords(text)
	return p.Stem(text)
}

// RemoveStopwords drops every word found in the stopword set
func (p *Pipeline) RemoveStopwords(text string) string {
	if p.stopwords == nil {
		return text
	}
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if !p.stopwords.Contains(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Stem reduces each word to its root form
func (p *Pipeline) Stem(text string) string {
	if p.stemmer == nil {
		return text
	}
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = p.stemmer.Stem(w)
	}
	return strings.Join(words, " ")
}
