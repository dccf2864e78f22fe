package source

import (
	"context"

	"github.com/gallerydash/activity-bot/internal/models"
)

// ListingRow is one row of the board listing, as presented by the source.
// RawDate keeps the source's "2006-01-02 15:04:05" string; parsing (and the
// decision what to do on parse failure) belongs to the caller.
type ListingRow struct {
	ID      int64
	Subject string
	RawDate string
}

// PostDetail is the parsed detail page of a single post.
type PostDetail struct {
	ID           int64
	Nickname     string
	UserID       string
	IP           string
	AccountType  models.AccountType
	RawDate      string
	CommentToken string
}

// Comment is one entry of a post's comment feed. The feed omits the year, so
// RawDate is "01.02 15:04:05"; the caller supplies the year.
type Comment struct {
	Nickname    string
	UserID      string
	IP          string
	AccountType models.AccountType
	RawDate     string
}

// Identity returns the attribution key: registered user id when present,
// otherwise the poster's IP.
func (d *PostDetail) Identity() string {
	if d.UserID != "" {
		return d.UserID
	}
	return d.IP
}

// Identity returns the attribution key of the comment author.
func (c *Comment) Identity() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.IP
}

// Source defines the contract for the gallery endpoints the pipeline consumes.
type Source interface {
	GalleryID() string
	ListPage(ctx context.Context, page int) ([]ListingRow, error)
	FetchPost(ctx context.Context, id int64) (*PostDetail, error)
	FetchComments(ctx context.Context, id int64, token string) ([]Comment, error)
	LookupCommentToken(ctx context.Context, id int64) (string, error)
}
