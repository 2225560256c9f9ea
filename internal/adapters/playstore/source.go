// Package playstore is the boundary to the review scraping collaborator.
package playstore

import (
	"context"
	"time"
)

// RawReview is the record shape produced by google-play-scraper. Nothing in
// it is trusted until it passes validation.
type RawReview struct {
	ReviewID             string     `json:"reviewId" validate:"required"`
	Score                int        `json:"score" validate:"min=1,max=5"`
	Content              string     `json:"content"`
	At                   *time.Time `json:"at" validate:"required"`
	ThumbsUpCount        int        `json:"thumbsUpCount" validate:"min=0"`
	ReviewCreatedVersion *string    `json:"reviewCreatedVersion"`
	ReplyContent         *string    `json:"replyContent"`
	RepliedAt            *time.Time `json:"repliedAt"`
}

// FetchRequest asks the collaborator for reviews posted on one day.
type FetchRequest struct {
	AppID   string
	Date    time.Time
	Count   int
	Lang    string
	Country string
}

// Source is the scraping collaborator.
type Source interface {
	Fetch(ctx context.Context, req FetchRequest) ([]RawReview, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, req FetchRequest) ([]RawReview, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, req FetchRequest) ([]RawReview, error) {
	return f(ctx, req)
}
