package balancer

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/pbaille/ulasan/internal/domain"
)

// DefaultSeed keeps balanced datasets reproducible across runs
const DefaultSeed = 42

// ErrEmptyClass is returned when a class has no rows to resample from
var ErrEmptyClass = errors.New("class has no rows")

// order in which partitions are resampled and concatenated
var classOrder = []domain.Sentiment{domain.Positive, domain.Negative, domain.Neutral}

// Balance resamples every class to exactly perClass rows. Classes with at
// least perClass rows are sampled without replacement, smaller ones with
// replacement. The combined rows are shuffled. Each resampling and the
// final shuffle draw from a generator seeded with seed.
func Balance(d domain.Dataset, perClass int, seed int64) (domain.Dataset, error) {
	if perClass <= 0 {
		return nil, fmt.Errorf("rows per class must be positive, got %d", perClass)
	}

	parts := make(map[domain.Sentiment]domain.Dataset, len(classOrder))
	for _, r := range d {
		parts[r.Sentiment] = append(parts[r.Sentiment], r)
	}

	out := make(domain.Dataset, 0, perClass*len(classOrder))
	for _, class := range classOrder {
		part := parts[class]
		if len(part) == 0 {
			return nil, fmt.Errorf("resample %s: %w", class, ErrEmptyClass)
		}
		out = append(out, resample(part, perClass, rand.New(rand.NewSource(seed)))...)
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})

	return out, nil
}

// resample draws n rows from part, with replacement only when part is
// smaller than n
func resample(part domain.Dataset, n int, rng *rand.Rand) domain.Dataset {
	out := make(domain.Dataset, n)
	if len(part) >= n {
		perm := rng.Perm(len(part))
		for i := 0; i < n; i++ {
			out[i] = part[perm[i]]
		}
		return out
	}

	for i := range out {
		out[i] = part[rng.Intn(len(part))]
	}
	return out
}
