package model

import "time"

type RelationKind string

const (
	KindVideoLike    RelationKind = "video-like"
	KindCommentLike  RelationKind = "comment-like"
	KindTweetLike    RelationKind = "tweet-like"
	KindSubscription RelationKind = "subscription"
)

func (k RelationKind) Valid() bool {
	switch k {
	case KindVideoLike, KindCommentLike, KindTweetLike, KindSubscription:
		return true
	default:
		return false
	}
}

// RelationKey identifies at most one Relation row.
type RelationKey struct {
	ActorID  string
	TargetID string
	Kind     RelationKind
}

type Relation struct {
	ID        string       `json:"id"`
	ActorID   string       `json:"actorId"`
	TargetID  string       `json:"targetId"`
	Kind      RelationKind `json:"kind"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (r Relation) Key() RelationKey {
	return RelationKey{ActorID: r.ActorID, TargetID: r.TargetID, Kind: r.Kind}
}

// RelationCursor is the keyset position of the last row of a page.
type RelationCursor struct {
	CreatedAt time.Time
	ID        string
}

// RelationQuery selects active relations of one kind by actor or by target.
// Exactly one of ActorID and TargetID is set.
type RelationQuery struct {
	Kind     RelationKind
	ActorID  string
	TargetID string
	After    *RelationCursor
	Limit    int
}

type ToggleResult struct {
	Active bool `json:"active"`
}

type RelationPage struct {
	Items      []Relation `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
}
