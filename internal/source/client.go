package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gallerydash/activity-bot/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const userAgent = "GalleryActivityBot/1.0"

// commentBotAuthor is the gallery's automated placeholder entry in comment
// feeds. It is not a real contributor and never counts.
const commentBotAuthor = "댓글돌이"

// Client talks to the gallery's listing, detail and comment endpoints. All
// requests go through one shared connection-pooled resty client owned by the
// caller.
type Client struct {
	baseURL   string
	galleryID string
	client    *resty.Client
}

// Ensure Client implements Source
var _ Source = (*Client)(nil)

// NewClient creates a gallery client on top of an injected resty client.
func NewClient(baseURL, galleryID string, client *resty.Client) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		galleryID: galleryID,
		client:    client,
	}
}

func (c *Client) GalleryID() string {
	return c.galleryID
}

// ListPage fetches one page of the board listing, newest first.
func (c *Client) ListPage(ctx context.Context, page int) ([]ListingRow, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetQueryParams(map[string]string{
			"id":       c.galleryID,
			"page":     strconv.Itoa(page),
			"list_num": "100",
		}).
		Get(c.baseURL + "/board/lists")

	if err != nil {
		return nil, fmt.Errorf("list page %d: %w", page, err)
	}
	if err := classifyStatus(resp.StatusCode()); err != nil {
		return nil, fmt.Errorf("list page %d: %w", page, err)
	}

	return parseListing(resp.Body())
}

func parseListing(body []byte) ([]ListingRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var rows []ListingRow
	doc.Find("tr.ub-content").Each(func(_ int, s *goquery.Selection) {
		row := ListingRow{
			Subject: strings.TrimSpace(s.Find(".gall_tit a").First().Text()),
			RawDate: strings.TrimSpace(s.Find(".gall_date").AttrOr("title", "")),
		}
		if no, ok := s.Attr("data-no"); ok {
			row.ID, _ = strconv.ParseInt(strings.TrimSpace(no), 10, 64)
		}
		rows = append(rows, row)
	})

	return rows, nil
}

// FetchPost fetches and parses the detail page of one post.
func (c *Client) FetchPost(ctx context.Context, id int64) (*PostDetail, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetQueryParams(map[string]string{
			"id": c.galleryID,
			"no": strconv.FormatInt(id, 10),
		}).
		Get(c.baseURL + "/board/view/")

	if err != nil {
		return nil, fmt.Errorf("post %d: %w", id, err)
	}
	if err := classifyStatus(resp.StatusCode()); err != nil {
		return nil, fmt.Errorf("post %d: %w", id, err)
	}

	return parseDetail(id, resp.Body())
}

func parseDetail(id int64, body []byte) (*PostDetail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	writer := doc.Find(".gallview_head .gall_writer").First()
	if writer.Length() == 0 {
		return nil, fmt.Errorf("%w: post %d has no writer block", ErrParse, id)
	}

	detail := &PostDetail{
		ID:           id,
		Nickname:     strings.TrimSpace(writer.AttrOr("data-nick", "")),
		UserID:       strings.TrimSpace(writer.AttrOr("data-uid", "")),
		IP:           strings.TrimSpace(writer.AttrOr("data-ip", "")),
		RawDate:      strings.TrimSpace(doc.Find(".gallview_head .gall_date").AttrOr("title", "")),
		CommentToken: doc.Find("input#e_s_n_o").AttrOr("value", ""),
	}
	detail.AccountType = classifyAccount(detail.UserID, writer.Find(".writer_nikcon img").AttrOr("src", ""))

	return detail, nil
}

// classifyAccount maps the author markers onto an account type. A registered
// id with the permanent-nickname badge is fixed; a registered id with any
// other (or missing) badge is semi; no id at all is an anonymous IP poster.
func classifyAccount(userID, badgeSrc string) models.AccountType {
	if userID == "" {
		return models.AccountAnonymous
	}
	if strings.Contains(badgeSrc, "fix_nik") {
		return models.AccountFixed
	}
	return models.AccountSemi
}

type commentListResponse struct {
	Comments []struct {
		Name    string `json:"name"`
		UserID  string `json:"user_id"`
		IP      string `json:"ip"`
		RegDate string `json:"reg_date"`
		NickCon string `json:"nicktype"`
	} `json:"comments"`
}

// FetchComments fetches the comment feed of one post. The endpoint is gated
// on a per-post token taken from the detail payload (or a token lookup).
func (c *Client) FetchComments(ctx context.Context, id int64, token string) ([]Comment, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetFormData(map[string]string{
			"id":           c.galleryID,
			"no":           strconv.FormatInt(id, 10),
			"e_s_n_o":      token,
			"comment_page": "1",
		}).
		Post(c.baseURL + "/board/comment/")

	if err != nil {
		return nil, fmt.Errorf("comments %d: %w", id, err)
	}
	if err := classifyStatus(resp.StatusCode()); err != nil {
		return nil, fmt.Errorf("comments %d: %w", id, err)
	}

	var payload commentListResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("comments %d: %w: %v", id, ErrParse, err)
	}

	comments := make([]Comment, 0, len(payload.Comments))
	for _, raw := range payload.Comments {
		if raw.Name == commentBotAuthor {
			continue
		}
		comment := Comment{
			Nickname:    raw.Name,
			UserID:      raw.UserID,
			IP:          raw.IP,
			RawDate:     raw.RegDate,
			AccountType: classifyAccount(raw.UserID, raw.NickCon),
		}
		comments = append(comments, comment)
	}

	return comments, nil
}

// LookupCommentToken re-requests the detail page just to extract the comment
// token, for posts whose cached detail payload lacked one.
func (c *Client) LookupCommentToken(ctx context.Context, id int64) (string, error) {
	detail, err := c.FetchPost(ctx, id)
	if err != nil {
		return "", err
	}
	if detail.CommentToken == "" {
		return "", fmt.Errorf("%w: post %d exposes no comment token", ErrParse, id)
	}
	logrus.Debugf("Recovered comment token for post %d via lookup", id)
	return detail.CommentToken, nil
}

// classifyStatus folds an HTTP status into the retry taxonomy: 404 is a
// deleted post, 5xx and 429 are transient, anything else non-200 is treated
// as transient too since the gallery intermittently serves odd statuses when
// throttling.
func classifyStatus(status int) error {
	switch {
	case status == 200:
		return nil
	case status == 404:
		return ErrNotFound
	default:
		return fmt.Errorf("unexpected status %d", status)
	}
}
