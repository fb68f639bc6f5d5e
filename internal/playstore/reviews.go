package playstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/pbaille/ulasan/internal/domain"
)

const (
	batchPath   = "/_/PlayStoreUi/data/batchexecute"
	reviewsRPC  = "UsvDTd"
	xssiPrefix  = ")]}'"
	reviewIDTag = 7
)

// Token is the continuation cursor of a review listing. The zero value
// requests the first page; a token returned with an exhausted listing
// yields empty pages.
type Token struct {
	value   string
	started bool
}

// NewToken wraps a cursor handed out by a listing. An empty cursor marks
// the listing as exhausted.
func NewToken(cursor string) Token {
	return Token{value: cursor, started: true}
}

// Exhausted reports whether the listing has no further pages
func (t Token) Exhausted() bool {
	return t.started && t.value == ""
}

// ReviewsRequest describes one page request
type ReviewsRequest struct {
	AppID   string
	Lang    string
	Country string
	Sort    Sort
	Count   int
	Token   Token
}

// ReviewsPage is one page of reviews plus the cursor for the next page
type ReviewsPage struct {
	Reviews []domain.Review
	Next    Token
}

// Reviews fetches a single page of reviews
func (c *Client) Reviews(ctx context.Context, r ReviewsRequest) (*ReviewsPage, error) {
	if r.Token.Exhausted() {
		return &ReviewsPage{Next: r.Token}, nil
	}

	count := r.Count
	if count <= 0 || count > MaxPageSize {
		count = MaxPageSize
	}
	sort := r.Sort
	if sort == 0 {
		sort = Newest
	}

	query := url.Values{}
	query.Set("hl", r.Lang)
	query.Set("gl", r.Country)

	form := url.Values{}
	form.Set("f.req", reviewsPayload(r.AppID, sort, count, r.Token))

	body, err := c.post(ctx, batchPath, query, form)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch reviews for %s", r.AppID)
	}

	page, err := parseReviews(body)
	if err != nil {
		return nil, errors.Wrapf(err, "parse reviews for %s", r.AppID)
	}
	return page, nil
}

func reviewsPayload(appID string, sort Sort, count int, tok Token) string {
	cursor := "null"
	if tok.value != "" {
		cursor = jsonString(tok.value)
	}
	inner := fmt.Sprintf("[null,null,[2,%d,[%d,null,%s],null,[]],[%s,%d]]",
		sort, count, cursor, jsonString(appID), reviewIDTag)

	outer, _ := json.Marshal([][][]interface{}{{{reviewsRPC, inner, nil, "generic"}}})
	return string(outer)
}

func parseReviews(body []byte) (*ReviewsPage, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(body)), xssiPrefix))
	if !gjson.Valid(raw) {
		return nil, errors.New("malformed batchexecute envelope")
	}

	payload := gjson.Get(raw, "0.2")
	if !payload.Exists() || payload.Type == gjson.Null || payload.String() == "" {
		// no reviews for this cursor
		return &ReviewsPage{Next: NewToken("")}, nil
	}
	if !gjson.Valid(payload.String()) {
		return nil, errors.New("malformed reviews payload")
	}

	data := gjson.Parse(payload.String())
	page := &ReviewsPage{Next: NewToken("")}

	for _, item := range data.Get("0").Array() {
		page.Reviews = append(page.Reviews, parseReview(item))
	}

	parts := data.Array()
	if len(parts) >= 2 {
		cursor := parts[len(parts)-2].Array()
		if n := len(cursor); n > 0 && cursor[n-1].Type == gjson.String {
			page.Next.value = cursor[n-1].String()
		}
	}

	return page, nil
}

func parseReview(item gjson.Result) domain.Review {
	r := domain.Review{
		ID:           item.Get("0").String(),
		UserName:     item.Get("1.0").String(),
		Rating:       int(item.Get("2").Int()),
		Content:      item.Get("4").String(),
		ThumbsUp:     int(item.Get("6").Int()),
		ReplyContent: item.Get("7.1").String(),
		AppVersion:   item.Get("10").String(),
	}
	if ts := item.Get("5.0"); ts.Exists() {
		r.At = time.Unix(ts.Int(), 0).UTC()
	}
	return r
}
