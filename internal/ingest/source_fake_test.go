package ingest

import (
	"context"
	"errors"
	"sync"

	"github.com/gallerydash/activity-bot/internal/source"
)

// fakeSource is a deterministic in-memory Source fixture shared by the
// locator, fetcher and service tests.
type fakeSource struct {
	mu sync.Mutex

	pages    map[int][]source.ListingRow
	details  map[int64]*source.PostDetail
	comments map[int64][]source.Comment

	failDetail   map[int64]bool   // permanent transient failure
	failPageLeft map[int]int      // page -> remaining transient failures
	tokens       map[int64]string // served by the dedicated lookup endpoint

	listCalls   int
	detailCalls map[int64]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages:        make(map[int][]source.ListingRow),
		details:      make(map[int64]*source.PostDetail),
		comments:     make(map[int64][]source.Comment),
		failDetail:   make(map[int64]bool),
		failPageLeft: make(map[int]int),
		tokens:       make(map[int64]string),
		detailCalls:  make(map[int64]int),
	}
}

func (f *fakeSource) GalleryID() string { return "testgall" }

func (f *fakeSource) ListPage(_ context.Context, page int) ([]source.ListingRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failPageLeft[page] > 0 {
		f.failPageLeft[page]--
		return nil, errors.New("connection reset")
	}
	return f.pages[page], nil
}

func (f *fakeSource) FetchPost(_ context.Context, id int64) (*source.PostDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[id]++
	if f.failDetail[id] {
		return nil, errors.New("server error 503")
	}
	detail, ok := f.details[id]
	if !ok {
		return nil, source.ErrNotFound
	}
	copied := *detail
	return &copied, nil
}

func (f *fakeSource) FetchComments(_ context.Context, id int64, _ string) ([]source.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments[id], nil
}

func (f *fakeSource) LookupCommentToken(_ context.Context, id int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token, ok := f.tokens[id]
	if !ok {
		return "", source.ErrParse
	}
	return token, nil
}
