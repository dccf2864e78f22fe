package source

import (
	"fmt"
	"time"

	"github.com/gallerydash/activity-bot/internal/models"
)

const (
	listingTimeLayout = "2006-01-02 15:04:05"
	commentTimeLayout = "2006.01.02 15:04:05"
)

// ParsePostTime parses a listing/detail timestamp ("2006-01-02 15:04:05") in
// the gallery timezone.
func ParsePostTime(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(listingTimeLayout, raw, models.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable post timestamp %q: %w", raw, err)
	}
	return t, nil
}

// ParseCommentTime reconstructs a full timestamp from the year-less comment
// feed format ("01.02 15:04:05") by prefixing the given year.
func ParseCommentTime(year int, raw string) (time.Time, error) {
	t, err := time.ParseInLocation(commentTimeLayout, fmt.Sprintf("%04d.%s", year, raw), models.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable comment timestamp %q: %w", raw, err)
	}
	return t, nil
}
