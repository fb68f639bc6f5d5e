package dataset

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/pbaille/ulasan/internal/domain"
)

// Summary describes the composition of a dataset
type Summary struct {
	Total          int
	BySentiment    map[domain.Sentiment]int
	ByRating       map[int]int
	MeanRating     float64
	MedianThumbsUp float64
	P90ThumbsUp    float64
}

// Summarize computes distribution and rating statistics for d
func Summarize(d domain.Dataset) Summary {
	s := Summary{
		Total:       len(d),
		BySentiment: d.CountBySentiment(),
		ByRating:    d.CountByRating(),
	}
	if len(d) == 0 {
		return s
	}

	ratings := make(stats.Float64Data, len(d))
	thumbs := make(stats.Float64Data, len(d))
	for i, r := range d {
		ratings[i] = float64(r.Rating)
		thumbs[i] = float64(r.ThumbsUp)
	}

	// errors only occur on empty input
	s.MeanRating, _ = stats.Mean(ratings)
	s.MedianThumbsUp, _ = stats.Median(thumbs)
	s.P90ThumbsUp, _ = stats.Percentile(thumbs, 90)

	return s
}

// WriteReport prints a human readable summary, largest class first
func WriteReport(w io.Writer, s Summary) {
	fmt.Fprintf(w, "Total reviews: %d\n", s.Total)
	if s.Total == 0 {
		return
	}

	fmt.Fprintf(w, "\nSentiment distribution:\n")
	labels := make([]domain.Sentiment, 0, len(s.BySentiment))
	for l := range s.BySentiment {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if s.BySentiment[labels[i]] != s.BySentiment[labels[j]] {
			return s.BySentiment[labels[i]] > s.BySentiment[labels[j]]
		}
		return labels[i] < labels[j]
	})
	for _, l := range labels {
		n := s.BySentiment[l]
		fmt.Fprintf(w, "  - %s: %d (%.1f%%)\n", capitalize(string(l)), n, float64(n)/float64(s.Total)*100)
	}

	fmt.Fprintf(w, "\nRating distribution:\n")
	ratings := make([]int, 0, len(s.ByRating))
	for r := range s.ByRating {
		ratings = append(ratings, r)
	}
	sort.Ints(ratings)
	for _, r := range ratings {
		fmt.Fprintf(w, "  - %d stars: %d\n", r, s.ByRating[r])
	}

	fmt.Fprintf(w, "\nMean rating: %.2f\n", s.MeanRating)
	fmt.Fprintf(w, "Thumbs up: median %.0f, p90 %.0f\n", s.MedianThumbsUp, s.P90ThumbsUp)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
