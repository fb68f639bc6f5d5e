package collector

import (
	"strings"
	"unicode/utf8"

	"github.com/pbaille/ulasan/internal/domain"
)

// MinReviewLength is the shortest review text kept, in characters
const MinReviewLength = 10

// Process filters, labels and deduplicates raw reviews. Reviews with
// blank or short text are dropped; of reviews sharing the same text only
// the first is kept.
func Process(raw []domain.Review) domain.Dataset {
	seen := make(map[string]struct{}, len(raw))
	out := make(domain.Dataset, 0, len(raw))

	for _, r := range raw {
		text := strings.TrimSpace(r.Content)
		if text == "" || utf8.RuneCountInString(text) < MinReviewLength {
			continue
		}
		if _, dup := seen[r.Content]; dup {
			continue
		}
		seen[r.Content] = struct{}{}
		out = append(out, domain.NewLabeledReview(r))
	}

	return out
}
