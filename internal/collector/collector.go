package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pbaille/ulasan/internal/domain"
	"github.com/pbaille/ulasan/internal/playstore"
)

// ErrGaveUp is returned when consecutive page failures hit the configured cap
var ErrGaveUp = errors.New("too many consecutive fetch failures")

// Source is the remote listing the collector pages through
type Source interface {
	Reviews(ctx context.Context, r playstore.ReviewsRequest) (*playstore.ReviewsPage, error)
	AppInfo(ctx context.Context, appID, lang, country string) (*playstore.AppInfo, error)
}

// Options control a collection run
type Options struct {
	AppID    string
	Lang     string
	Country  string
	Sort     playstore.Sort
	PageSize int
	Target   int

	PageDelay  time.Duration
	RetryDelay time.Duration

	// EarlyStopRatio ends the run on a failure once Target*EarlyStopRatio
	// reviews are in hand.
	EarlyStopRatio float64

	// MaxConsecutiveFailures bounds retries while below the early stop
	// threshold. Zero retries forever.
	MaxConsecutiveFailures int
}

// DefaultOptions returns the settings used for the Gojek dataset
func DefaultOptions() Options {
	return Options{
		AppID:                  "com.gojek.app",
		Lang:                   "id",
		Country:                "id",
		Sort:                   playstore.Newest,
		PageSize:               playstore.MaxPageSize,
		Target:                 12000,
		PageDelay:              2 * time.Second,
		RetryDelay:             5 * time.Second,
		EarlyStopRatio:         0.8,
		MaxConsecutiveFailures: 10,
	}
}

// Collector pages through a Source until a target count is reached
type Collector struct {
	src   Source
	opts  Options
	runID string
	log   *log.Entry
	sleep func(context.Context, time.Duration) error
}

// New creates a Collector with its own run ID
func New(src Source, opts Options) *Collector {
	runID := uuid.New().String()
	return &Collector{
		src:   src,
		opts:  opts,
		runID: runID,
		log: log.WithFields(log.Fields{
			"run": runID[:8],
			"app": opts.AppID,
		}),
		sleep: sleepContext,
	}
}

// RunID identifies this collection run in logs
func (c *Collector) RunID() string {
	return c.runID
}

// AppInfo fetches app metadata. Failures are logged and yield nil.
func (c *Collector) AppInfo(ctx context.Context) *playstore.AppInfo {
	info, err := c.src.AppInfo(ctx, c.opts.AppID, c.opts.Lang, c.opts.Country)
	if err != nil {
		c.log.WithError(err).Warn("could not fetch app info")
		return nil
	}
	return info
}

// Collect fetches pages until Target reviews are gathered or the source
// runs dry. The reviews gathered so far are returned alongside any error.
func (c *Collector) Collect(ctx context.Context) ([]domain.Review, error) {
	var (
		all      []domain.Review
		token    playstore.Token
		batch    int
		failures int
	)

	threshold := float64(c.opts.Target) * c.opts.EarlyStopRatio

	for len(all) < c.opts.Target {
		batch++
		logger := c.log.WithField("batch", batch)
		logger.Debug("fetching reviews")

		page, err := c.src.Reviews(ctx, playstore.ReviewsRequest{
			AppID:   c.opts.AppID,
			Lang:    c.opts.Lang,
			Country: c.opts.Country,
			Sort:    c.opts.Sort,
			Count:   c.opts.PageSize,
			Token:   token,
		})
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			pageErrors.Inc()
			failures++
			logger.WithError(err).Warnf("batch failed, retrying in %s", c.opts.RetryDelay)

			if err := c.sleep(ctx, c.opts.RetryDelay); err != nil {
				return all, err
			}
			if float64(len(all)) >= threshold {
				logger.WithField("total", len(all)).Info("enough reviews collected, stopping")
				break
			}
			if c.opts.MaxConsecutiveFailures > 0 && failures >= c.opts.MaxConsecutiveFailures {
				return all, fmt.Errorf("%w (%d): %w", ErrGaveUp, failures, err)
			}
			continue
		}
		failures = 0

		if len(page.Reviews) == 0 {
			logger.Info("no more reviews available")
			break
		}

		all = append(all, page.Reviews...)
		token = page.Next
		pagesFetched.Inc()
		reviewsFetched.Add(float64(len(page.Reviews)))

		logger.WithFields(log.Fields{
			"fetched": len(page.Reviews),
			"total":   len(all),
		}).Info("batch fetched")

		if len(all) < c.opts.Target {
			if err := c.sleep(ctx, c.opts.PageDelay); err != nil {
				return all, err
			}
		}
	}

	return all, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
