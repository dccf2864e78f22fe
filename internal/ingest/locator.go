package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/gallerydash/activity-bot/internal/models"
	"github.com/gallerydash/activity-bot/internal/source"
	"github.com/sirupsen/logrus"
)

// Locator walks the board listing, newest first, and finds the post-id range
// belonging to a target window. The walk is strictly sequential: the
// termination heuristic depends on seeing rows in the order the source
// presents them, so this stage must never overlap page fetches.
type Locator struct {
	src   source.Source
	retry source.RetryPolicy

	PinnedCutoff  time.Duration
	OldPostStreak int
	MaxPages      int
}

// NewLocator creates a locator with the given listing retry policy.
func NewLocator(src source.Source, retry source.RetryPolicy, pinnedCutoff time.Duration, oldPostStreak, maxPages int) *Locator {
	return &Locator{
		src:           src,
		retry:         retry,
		PinnedCutoff:  pinnedCutoff,
		OldPostStreak: oldPostStreak,
		MaxPages:      maxPages,
	}
}

// subjectMarkers flag non-content listing rows (notices, surveys, promos)
// that carry no organic activity.
var subjectMarkers = []string{"공지", "설문", "AD", "광고"}

func isNoiseSubject(subject string) bool {
	for _, marker := range subjectMarkers {
		if strings.HasPrefix(subject, marker) {
			return true
		}
	}
	return false
}

// Locate returns the min/max post id with a publish timestamp inside the
// window, both zero when nothing in-window was found.
func (l *Locator) Locate(ctx context.Context, window models.TimeWindow) (models.PostIDRange, error) {
	var (
		rng       models.PostIDRange
		oldStreak int
		seen      = make(map[int64]struct{})
	)

	pinnedBefore := window.Start.Add(-l.PinnedCutoff)
	scanStart := window.ScanStart()

	for page := 1; page <= l.MaxPages; page++ {
		var rows []source.ListingRow
		err := l.retry.Do(ctx, "list page", func(ctx context.Context) error {
			var fetchErr error
			rows, fetchErr = l.src.ListPage(ctx, page)
			return fetchErr
		})
		if err != nil {
			return models.PostIDRange{}, err
		}

		if len(rows) == 0 {
			logrus.Debugf("Listing page %d is empty, reached end of board", page)
			return rng, nil
		}

		for _, row := range rows {
			// Non-numeric ids and notice/survey/promo rows are not content.
			if row.ID == 0 || isNoiseSubject(row.Subject) {
				continue
			}
			// Pagination repeats rows when new posts shift the board.
			if _, dup := seen[row.ID]; dup {
				continue
			}
			seen[row.ID] = struct{}{}

			ts, err := source.ParsePostTime(row.RawDate)
			if err != nil {
				continue
			}

			// Stale pinned/promoted threads are out of chronological order
			// and must not touch the range or the termination streak.
			if ts.Before(pinnedBefore) {
				continue
			}

			switch {
			case !ts.Before(scanStart) && ts.Before(window.End):
				// The lookback hour before Start is included on purpose:
				// listing timestamps are not fully trustworthy near the
				// boundary, and the fetcher re-tests every id against the
				// detail timestamp anyway.
				if rng.MinID == 0 || row.ID < rng.MinID {
					rng.MinID = row.ID
				}
				if row.ID > rng.MaxID {
					rng.MaxID = row.ID
				}
				oldStreak = 0
			case ts.Before(window.Start):
				oldStreak++
				if oldStreak >= l.OldPostStreak {
					logrus.Debugf("Stopping scan on page %d after %d consecutive pre-window posts", page, oldStreak)
					return rng, nil
				}
			default:
				// Still looking at posts newer than the window.
				oldStreak = 0
			}
		}
	}

	logrus.Warnf("Listing scan for window %s hit the %d page safety bound", window.Label(), l.MaxPages)
	return rng, nil
}
