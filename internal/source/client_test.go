package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gallerydash/activity-bot/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `
<table class="gall_list">
<tbody>
<tr class="ub-content" data-no="110">
  <td class="gall_tit"><a href="/board/view/?id=testgall&no=110">첫 글</a></td>
  <td class="gall_date" title="2025-01-01 09:10:00">09:10</td>
</tr>
<tr class="ub-content">
  <td class="gall_tit"><a href="#">AD 배너</a></td>
  <td class="gall_date" title="">지금</td>
</tr>
<tr class="ub-content" data-no="109">
  <td class="gall_tit"><a href="/board/view/?id=testgall&no=109">둘째 글</a></td>
  <td class="gall_date" title="2025-01-01 09:05:00">09:05</td>
</tr>
</tbody>
</table>`

const detailHTML = `
<div class="gallview_head">
  <div class="gall_writer ub-writer" data-nick="테스터" data-uid="tester123" data-ip="">
    <span class="nickname">테스터</span>
    <span class="writer_nikcon"><img src="/images/fix_nik.gif"></span>
  </div>
  <span class="gall_date" title="2025-01-01 09:10:00">09:10</span>
</div>
<input type="hidden" id="e_s_n_o" value="token-abc">`

const anonDetailHTML = `
<div class="gallview_head">
  <div class="gall_writer ub-writer" data-nick="유동닉" data-uid="" data-ip="1.2.3.4">
    <span class="nickname">유동닉</span>
  </div>
  <span class="gall_date" title="2025-01-01 09:20:00">09:20</span>
</div>`

const commentJSON = `{
  "comments": [
    {"name": "댓글돌이", "user_id": "", "ip": "", "reg_date": "01.01 09:00:01"},
    {"name": "고닉러", "user_id": "regular1", "ip": "", "reg_date": "01.01 09:15:00", "nicktype": "/images/fix_nik.gif"},
    {"name": "유동러", "user_id": "", "ip": "5.6.7.8", "reg_date": "01.01 09:16:00"}
  ]
}`

func testServer(t *testing.T) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/board/lists", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "99" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(listingHTML))
	})
	mux.HandleFunc("/board/view/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("no") {
		case "110":
			w.Write([]byte(detailHTML))
		case "111":
			w.Write([]byte(anonDetailHTML))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/board/comment/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("e_s_n_o") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(commentJSON))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewClient(server.URL, "testgall", resty.New())
}

func TestClient_ListPage(t *testing.T) {
	client := testServer(t)

	rows, err := client.ListPage(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, int64(110), rows[0].ID)
	assert.Equal(t, "첫 글", rows[0].Subject)
	assert.Equal(t, "2025-01-01 09:10:00", rows[0].RawDate)

	// The ad row has no numeric id; the locator rejects id 0.
	assert.Equal(t, int64(0), rows[1].ID)

	assert.Equal(t, int64(109), rows[2].ID)
}

func TestClient_ListPageServerError(t *testing.T) {
	client := testServer(t)

	_, err := client.ListPage(context.Background(), 99)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrParse)
}

func TestClient_FetchPostRegisteredFixed(t *testing.T) {
	client := testServer(t)

	detail, err := client.FetchPost(context.Background(), 110)
	require.NoError(t, err)

	assert.Equal(t, "테스터", detail.Nickname)
	assert.Equal(t, "tester123", detail.UserID)
	assert.Equal(t, "tester123", detail.Identity())
	assert.Equal(t, models.AccountFixed, detail.AccountType)
	assert.Equal(t, "2025-01-01 09:10:00", detail.RawDate)
	assert.Equal(t, "token-abc", detail.CommentToken)
}

func TestClient_FetchPostAnonymous(t *testing.T) {
	client := testServer(t)

	detail, err := client.FetchPost(context.Background(), 111)
	require.NoError(t, err)

	assert.Equal(t, "유동닉", detail.Nickname)
	assert.Empty(t, detail.UserID)
	assert.Equal(t, "1.2.3.4", detail.Identity())
	assert.Equal(t, models.AccountAnonymous, detail.AccountType)
	assert.Empty(t, detail.CommentToken)
}

func TestClient_FetchPostDeleted(t *testing.T) {
	client := testServer(t)

	_, err := client.FetchPost(context.Background(), 404404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_FetchComments(t *testing.T) {
	client := testServer(t)

	comments, err := client.FetchComments(context.Background(), 110, "token-abc")
	require.NoError(t, err)

	// The automated placeholder author is filtered out at the client.
	require.Len(t, comments, 2)

	assert.Equal(t, "고닉러", comments[0].Nickname)
	assert.Equal(t, "regular1", comments[0].Identity())
	assert.Equal(t, models.AccountFixed, comments[0].AccountType)
	assert.Equal(t, "01.01 09:15:00", comments[0].RawDate)

	assert.Equal(t, "유동러", comments[1].Nickname)
	assert.Equal(t, "5.6.7.8", comments[1].Identity())
	assert.Equal(t, models.AccountAnonymous, comments[1].AccountType)
}

func TestClient_LookupCommentToken(t *testing.T) {
	client := testServer(t)

	token, err := client.LookupCommentToken(context.Background(), 110)
	require.NoError(t, err)
	assert.Equal(t, "token-abc", token)

	// A post that serves no token is a parse-class problem, not transient.
	_, err = client.LookupCommentToken(context.Background(), 111)
	assert.ErrorIs(t, err, ErrParse)
}

func TestClassifyAccount(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		badgeSrc string
		expected models.AccountType
	}{
		{"Permanent badge", "user1", "/images/fix_nik.gif", models.AccountFixed},
		{"Registered without badge", "user1", "", models.AccountSemi},
		{"Registered with unknown badge", "user1", "/images/sub_nik.gif", models.AccountSemi},
		{"No registered id", "", "/images/fix_nik.gif", models.AccountAnonymous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyAccount(tt.userID, tt.badgeSrc))
		})
	}
}
