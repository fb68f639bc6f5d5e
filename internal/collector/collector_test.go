package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/ulasan/internal/domain"
	"github.com/pbaille/ulasan/internal/playstore"
)

type step struct {
	n   int
	err error
}

// scriptedSource replays one step per Reviews call and then returns empty pages
type scriptedSource struct {
	steps    []step
	calls    int
	requests []playstore.ReviewsRequest
	infoErr  error
}

func (s *scriptedSource) Reviews(ctx context.Context, r playstore.ReviewsRequest) (*playstore.ReviewsPage, error) {
	s.requests = append(s.requests, r)
	i := s.calls
	s.calls++
	if i >= len(s.steps) {
		return &playstore.ReviewsPage{}, nil
	}
	if s.steps[i].err != nil {
		return nil, s.steps[i].err
	}
	page := &playstore.ReviewsPage{Next: playstore.NewToken(fmt.Sprintf("cursor-%d", i))}
	for j := 0; j < s.steps[i].n; j++ {
		page.Reviews = append(page.Reviews, domain.Review{
			ID:      fmt.Sprintf("r-%d-%d", i, j),
			Rating:  5,
			Content: fmt.Sprintf("ulasan nomor %d-%d bagus", i, j),
		})
	}
	return page, nil
}

func (s *scriptedSource) AppInfo(ctx context.Context, appID, lang, country string) (*playstore.AppInfo, error) {
	if s.infoErr != nil {
		return nil, s.infoErr
	}
	return &playstore.AppInfo{AppID: appID, Title: "Gojek"}, nil
}

func newTestCollector(src Source, opts Options) (*Collector, *[]time.Duration) {
	var sleeps []time.Duration
	c := New(src, opts)
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return c, &sleeps
}

func testOptions(target int) Options {
	opts := DefaultOptions()
	opts.Target = target
	opts.PageDelay = 2 * time.Second
	opts.RetryDelay = 5 * time.Second
	return opts
}

var errBoom = errors.New("boom")

func TestCollectReachesTarget(t *testing.T) {
	src := &scriptedSource{steps: []step{{n: 5}, {n: 5}, {n: 5}, {n: 5}}}
	c, sleeps := newTestCollector(src, testOptions(12))

	reviews, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, reviews, 15)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, *sleeps)

	for _, r := range src.requests {
		assert.Equal(t, "com.gojek.app", r.AppID)
		assert.Equal(t, "id", r.Lang)
		assert.Equal(t, "id", r.Country)
		assert.Equal(t, playstore.Newest, r.Sort)
		assert.Equal(t, playstore.MaxPageSize, r.Count)
	}
}

func TestCollectStopsOnEmptyPage(t *testing.T) {
	src := &scriptedSource{steps: []step{{n: 4}, {n: 0}}}
	c, _ := newTestCollector(src, testOptions(100))

	reviews, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, reviews, 4)
	assert.Equal(t, 2, src.calls)
}

func TestCollectRetriesAfterFailure(t *testing.T) {
	src := &scriptedSource{steps: []step{{n: 3}, {err: errBoom}, {n: 3}}}
	c, sleeps := newTestCollector(src, testOptions(6))

	reviews, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, reviews, 6)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second}, *sleeps)
}

func TestCollectPassesContinuationToken(t *testing.T) {
	src := &scriptedSource{steps: []step{{n: 3}, {err: errBoom}, {n: 3}, {n: 3}}}
	c, _ := newTestCollector(src, testOptions(9))

	reviews, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, reviews, 9)
	require.Len(t, src.requests, 4)

	// first page starts from scratch, a retry reuses the cursor it failed on
	assert.Equal(t, playstore.Token{}, src.requests[0].Token)
	assert.Equal(t, playstore.NewToken("cursor-0"), src.requests[1].Token)
	assert.Equal(t, playstore.NewToken("cursor-0"), src.requests[2].Token)
	assert.Equal(t, playstore.NewToken("cursor-2"), src.requests[3].Token)
}

func TestCollectEarlyStopNearTarget(t *testing.T) {
	src := &scriptedSource{steps: []step{{n: 8}, {err: errBoom}, {n: 8}}}
	c, sleeps := newTestCollector(src, testOptions(10))

	reviews, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, reviews, 8)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second}, *sleeps)
}

func TestCollectGivesUpBelowThreshold(t *testing.T) {
	src := &scriptedSource{steps: []step{{n: 2}, {err: errBoom}, {err: errBoom}, {err: errBoom}, {n: 50}}}
	opts := testOptions(10)
	opts.MaxConsecutiveFailures = 3
	c, _ := newTestCollector(src, opts)

	reviews, err := c.Collect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGaveUp))
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, reviews, 2)
	assert.Equal(t, 4, src.calls)
}

func TestCollectFailureCountResetsOnSuccess(t *testing.T) {
	src := &scriptedSource{steps: []step{
		{err: errBoom}, {n: 1}, {err: errBoom}, {n: 1}, {err: errBoom}, {n: 1},
	}}
	opts := testOptions(3)
	opts.MaxConsecutiveFailures = 2
	c, _ := newTestCollector(src, opts)

	reviews, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, reviews, 3)
}

func TestCollectHonoursCancellation(t *testing.T) {
	src := &scriptedSource{steps: []step{{n: 1}, {n: 1}, {n: 1}}}
	c := New(src, testOptions(10))
	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}

	reviews, err := c.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, reviews, 1)
}

func TestAppInfoFailureIsNotFatal(t *testing.T) {
	c := New(&scriptedSource{infoErr: errBoom}, DefaultOptions())
	assert.Nil(t, c.AppInfo(context.Background()))

	c = New(&scriptedSource{}, DefaultOptions())
	info := c.AppInfo(context.Background())
	require.NotNil(t, info)
	assert.Equal(t, "Gojek", info.Title)
}

func TestRunIDIsUnique(t *testing.T) {
	a := New(&scriptedSource{}, DefaultOptions())
	b := New(&scriptedSource{}, DefaultOptions())
	assert.NotEqual(t, a.RunID(), b.RunID())
}
