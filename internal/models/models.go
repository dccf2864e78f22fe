package models

import (
	"fmt"
	"sync"
	"time"
)

// AccountType classifies an identity's registration status at the time of a
// given action.
type AccountType string

const (
	// AccountFixed is a registered user carrying the permanent-nickname badge.
	AccountFixed AccountType = "fixed"
	// AccountSemi is a registered user without the permanent badge (or with an
	// unrecognized badge).
	AccountSemi AccountType = "semi"
	// AccountAnonymous is an unregistered poster, identified by IP address.
	AccountAnonymous AccountType = "anonymous"
)

// WindowLabelFormat is the artifact naming convention, e.g. "2025-01-01_09h".
const WindowLabelFormat = "2006-01-02_15h"

var (
	locOnce sync.Once
	loc     *time.Location
)

// Location returns the fixed civil timezone all gallery timestamps are parsed
// and compared in.
func Location() *time.Location {
	locOnce.Do(func() {
		var err error
		loc, err = time.LoadLocation("Asia/Seoul")
		if err != nil {
			loc = time.FixedZone("KST", 9*60*60)
		}
	})
	return loc
}

// TimeWindow is a half-open one-hour interval [Start, End) in the fixed
// gallery timezone. It is the unit of ingestion.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow returns the one-hour window starting at start, truncated to
// the hour in the gallery timezone.
func NewTimeWindow(start time.Time) TimeWindow {
	start = start.In(Location()).Truncate(time.Hour)
	return TimeWindow{Start: start, End: start.Add(time.Hour)}
}

// ParseWindowLabel parses an artifact-style window label back into a window.
func ParseWindowLabel(label string) (TimeWindow, error) {
	start, err := time.ParseInLocation(WindowLabelFormat, label, Location())
	if err != nil {
		return TimeWindow{}, fmt.Errorf("invalid window label %q: %w", label, err)
	}
	return NewTimeWindow(start), nil
}

// Label returns the window's artifact label.
func (w TimeWindow) Label() string {
	return w.Start.Format(WindowLabelFormat)
}

// ScanStart is the listing lookback bound, one hour before Start. It only
// widens what the locator tracks; it never admits posts into the aggregate.
func (w TimeWindow) ScanStart() time.Time {
	return w.Start.Add(-time.Hour)
}

// Contains reports whether t falls inside [Start, End).
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Next returns the following hourly window.
func (w TimeWindow) Next() TimeWindow {
	return TimeWindow{Start: w.End, End: w.End.Add(time.Hour)}
}

// ActivityRecord accumulates one identity's activity inside a single window.
// Nickname is last-write-wins across observations; counts only ever grow.
type ActivityRecord struct {
	WindowLabel  string      `json:"window_label"`
	Identity     string      `json:"identity"`
	Nickname     string      `json:"nickname"`
	AccountType  AccountType `json:"account_type"`
	PostCount    int         `json:"post_count"`
	CommentCount int         `json:"comment_count"`
}

// ActivityRow is the export shape handed to the persistence collaborator:
// one row per identity per window, fixed column order.
type ActivityRow struct {
	WindowLabel   string      `json:"window_label"`
	Nickname      string      `json:"nickname"`
	Identity      string      `json:"identity"`
	AccountType   AccountType `json:"account_type"`
	PostCount     int         `json:"post_count"`
	CommentCount  int         `json:"comment_count"`
	TotalActivity int         `json:"total_activity"`
}

// PostIDRange is the contiguous block of post ids the fetcher walks for a
// window. Both bounds zero means no in-window post was found.
type PostIDRange struct {
	MinID int64
	MaxID int64
}

// IsEmpty reports whether the locator found nothing in-window.
func (r PostIDRange) IsEmpty() bool {
	return r.MinID == 0 && r.MaxID == 0
}

// Count returns the number of ids the fetcher will attempt.
func (r PostIDRange) Count() int64 {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxID - r.MinID + 1
}
