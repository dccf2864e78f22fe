package ingest

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gallerydash/activity-bot/internal/models"
	"github.com/gallerydash/activity-bot/internal/source"
	"github.com/sirupsen/logrus"
)

// Fetcher retrieves post details and comment feeds for every id in a located
// range and feeds the window's aggregator. It is the only concurrent stage:
// a fixed worker pool with paced, jittered dispatch to stay under the
// source's rate limits.
type Fetcher struct {
	src   source.Source
	retry source.RetryPolicy

	Workers      int
	PacingDelay  time.Duration
	PacingJitter time.Duration
}

// NewFetcher creates a fetcher with the given detail/comment retry policy.
func NewFetcher(src source.Source, retry source.RetryPolicy, workers int, pacingDelay, pacingJitter time.Duration) *Fetcher {
	return &Fetcher{
		src:          src,
		retry:        retry,
		Workers:      workers,
		PacingDelay:  pacingDelay,
		PacingJitter: pacingJitter,
	}
}

// Fetch walks the dense range [MinID, MaxID] inclusive, regardless of which
// ids the listing actually showed, and updates agg under the window's time
// boundary. It blocks until every id has been attempted and returns the
// number of exhausted-retry failures accumulated along the way.
func (f *Fetcher) Fetch(ctx context.Context, window models.TimeWindow, rng models.PostIDRange, agg *Aggregator) int {
	if rng.IsEmpty() {
		return 0
	}

	var failures int32
	ids := make(chan int64)

	var wg sync.WaitGroup
	for i := 0; i < f.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				if err := f.fetchOne(ctx, window, id, agg); err != nil {
					atomic.AddInt32(&failures, 1)
					logrus.Warnf("Post %d failed permanently: %v", id, err)
				}
			}
		}()
	}

	// Dispatch in increasing id order with pacing between dispatches.
	// Completion order is up to the network; aggregator updates commute.
	for id := rng.MinID; id <= rng.MaxID; id++ {
		select {
		case ids <- id:
		case <-ctx.Done():
			id = rng.MaxID
		}
		f.pace()
	}
	close(ids)
	wg.Wait()

	return int(atomic.LoadInt32(&failures))
}

func (f *Fetcher) pace() {
	delay := f.PacingDelay
	if f.PacingJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(f.PacingJitter)))
	}
	if delay > 0 {
		time.Sleep(delay)
	}
}

// fetchOne processes a single post id: detail, then comments. A non-nil
// return means an exhausted-retry failure that counts toward the integrity
// gate; parse problems and deleted posts are skipped silently.
func (f *Fetcher) fetchOne(ctx context.Context, window models.TimeWindow, id int64, agg *Aggregator) error {
	var detail *source.PostDetail
	err := f.retry.Do(ctx, "post detail", func(ctx context.Context) error {
		var fetchErr error
		detail, fetchErr = f.src.FetchPost(ctx, id)
		return fetchErr
	})
	switch {
	case errors.Is(err, source.ErrNotFound):
		logrus.Debugf("Post %d is gone, skipping", id)
		return nil
	case errors.Is(err, source.ErrParse):
		logrus.Debugf("Post %d detail is unparseable, skipping", id)
		return nil
	case err != nil:
		return err
	}

	if ts, err := source.ParsePostTime(detail.RawDate); err == nil && window.Contains(ts) {
		agg.RecordPost(detail.Identity(), detail.Nickname, detail.AccountType)
	}

	// Comments are fetched for every id in range: the feed is keyed to the
	// post, and the half-open boundary test below decides what counts.
	return f.fetchComments(ctx, window, id, detail.CommentToken, agg)
}

func (f *Fetcher) fetchComments(ctx context.Context, window models.TimeWindow, id int64, token string, agg *Aggregator) error {
	if token == "" {
		err := f.retry.Do(ctx, "comment token lookup", func(ctx context.Context) error {
			var lookupErr error
			token, lookupErr = f.src.LookupCommentToken(ctx, id)
			return lookupErr
		})
		switch {
		case errors.Is(err, source.ErrNotFound), errors.Is(err, source.ErrParse):
			return nil
		case err != nil:
			return err
		}
	}

	var comments []source.Comment
	err := f.retry.Do(ctx, "comment list", func(ctx context.Context) error {
		var fetchErr error
		comments, fetchErr = f.src.FetchComments(ctx, id, token)
		return fetchErr
	})
	switch {
	case errors.Is(err, source.ErrNotFound):
		return nil
	case errors.Is(err, source.ErrParse):
		logrus.Debugf("Comment feed of post %d is unparseable, skipping", id)
		return nil
	case err != nil:
		return err
	}

	for _, comment := range comments {
		// The feed never carries a year; the window's start year is
		// prefixed before parsing. Still unparseable means the comment is
		// dropped, not retried.
		ts, err := source.ParseCommentTime(window.Start.Year(), comment.RawDate)
		if err != nil {
			continue
		}
		if !window.Contains(ts) {
			continue
		}
		agg.RecordComment(comment.Identity(), comment.Nickname, comment.AccountType)
	}

	return nil
}
