// Package model contains domain models passed between layers.
package model

import "time"

// Review is one user review as fetched from the store. Immutable once fetched.
type Review struct {
	ID        string          `json:"id"`
	AppID     string          `json:"app_id"`
	Rating    int             `json:"rating"` // 1..5
	Text      string          `json:"text"`
	PostedAt  time.Time       `json:"posted_at"`
	FetchedAt time.Time       `json:"fetched_at"`
	ThumbsUp  int             `json:"thumbs_up"`
	Version   string          `json:"version,omitempty"` // app version the review was written against
	Reply     *DeveloperReply `json:"reply,omitempty"`
}

// DeveloperReply is the publisher's public answer to a review.
type DeveloperReply struct {
	Text      string    `json:"text"`
	RepliedAt time.Time `json:"replied_at"`
}

// HasReply reports whether the developer responded to the review.
func (r Review) HasReply() bool {
	return r.Reply != nil
}

// Snapshot is the set of reviews fetched for one (app, date). It is written
// once and never mutated.
type Snapshot struct {
	AppID     string    `json:"app_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	FetchedAt time.Time `json:"fetched_at"`
	Reviews   []Review  `json:"reviews"`
}

// SnapshotKey identifies a stored snapshot.
type SnapshotKey struct {
	AppID string `json:"app_id"`
	Date  string `json:"date"`
}

// Key returns the snapshot's storage key.
func (s Snapshot) Key() SnapshotKey {
	return SnapshotKey{AppID: s.AppID, Date: s.Date}
}

func (k SnapshotKey) String() string {
	return k.AppID + "/" + k.Date
}
