package domain

import "time"

// DateLayout is the ISO date format used in persisted datasets
const DateLayout = "2006-01-02"

// Sentiment is the class assigned to a review
type Sentiment string

const (
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
	Positive Sentiment = "positive"
)

// Sentiments lists the classes in model output order
var Sentiments = []Sentiment{Negative, Neutral, Positive}

// Label derives the sentiment from a star rating
func Label(rating int) Sentiment {
	switch {
	case rating <= 2:
		return Negative
	case rating == 3:
		return Neutral
	default:
		return Positive
	}
}

// Review is a record as returned by the content source
type Review struct {
	ID           string    `json:"id"`
	UserName     string    `json:"user_name"`
	Rating       int       `json:"rating"`
	Content      string    `json:"content"`
	At           time.Time `json:"at"`
	ThumbsUp     int       `json:"thumbs_up"`
	AppVersion   string    `json:"app_version,omitempty"`
	ReplyContent string    `json:"reply_content,omitempty"`
}

// LabeledReview is the persisted projection of a Review
type LabeledReview struct {
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review"`
	Date      string    `json:"date"`
	ThumbsUp  int       `json:"thumbs_up"`
	Sentiment Sentiment `json:"sentiment"`
}

// NewLabeledReview projects r and labels it from its rating
func NewLabeledReview(r Review) LabeledReview {
	return LabeledReview{
		Username:  r.UserName,
		Rating:    r.Rating,
		Review:    r.Content,
		Date:      r.At.Format(DateLayout),
		ThumbsUp:  r.ThumbsUp,
		Sentiment: Label(r.Rating),
	}
}

// Dataset is an insertion-ordered collection of labeled reviews
type Dataset []LabeledReview

// CountBySentiment returns the number of rows per class
func (d Dataset) CountBySentiment() map[Sentiment]int {
	counts := make(map[Sentiment]int, len(Sentiments))
	for _, r := range d {
		counts[r.Sentiment]++
	}
	return counts
}

// CountByRating returns the number of rows per star rating
func (d Dataset) CountByRating() map[int]int {
	counts := make(map[int]int)
	for _, r := range d {
		counts[r.Rating]++
	}
	return counts
}
