package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/model"
)

// maxToggleAttempts bounds the delete/insert loop when concurrent toggles on
// the same key keep interleaving.
const maxToggleAttempts = 3

// RelationStore provides the two atomic primitives a toggle is built from,
// plus keyset listing.
type RelationStore interface {
	DeleteRelation(ctx context.Context, key model.RelationKey) (bool, error)
	InsertRelation(ctx context.Context, rel model.Relation) (bool, error)
	ListRelations(ctx context.Context, q model.RelationQuery) ([]model.Relation, error)
}

type RelationService struct {
	repo    RelationStore
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewRelationService(repo RelationStore, log *slog.Logger, m *metrics.Metrics) *RelationService {
	if log == nil {
		log = slog.Default()
	}
	return &RelationService{repo: repo, log: log.With("component", "relation"), metrics: m}
}

// Toggle flips the relation (actorID, targetID, kind) and returns the new state.
//
// Each step is one atomic store call: "delete if present" first, then
// "insert unless present". Two concurrent toggles can therefore never both
// insert; the one whose insert loses the race loops back and deletes, so the
// pair nets out to no change.
func (s *RelationService) Toggle(ctx context.Context, actorID, targetID string, kind model.RelationKind) (model.ToggleResult, error) {
	if !kind.Valid() {
		return model.ToggleResult{}, fmt.Errorf("%w: unknown relation kind %q", ErrInvalidArgument, kind)
	}
	actorID, err := canonicalID(actorID)
	if err != nil {
		return model.ToggleResult{}, err
	}
	targetID, err = canonicalID(targetID)
	if err != nil {
		return model.ToggleResult{}, err
	}
	if kind == model.KindSubscription && actorID == targetID {
		return model.ToggleResult{}, ErrSelfSubscription
	}

	key := model.RelationKey{ActorID: actorID, TargetID: targetID, Kind: kind}
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		deleted, err := s.repo.DeleteRelation(ctx, key)
		if err != nil {
			return model.ToggleResult{}, err
		}
		if deleted {
			s.metrics.Toggle(string(kind), false)
			return model.ToggleResult{Active: false}, nil
		}

		inserted, err := s.repo.InsertRelation(ctx, model.Relation{
			ID:       uuid.NewString(),
			ActorID:  actorID,
			TargetID: targetID,
			Kind:     kind,
		})
		if err != nil {
			return model.ToggleResult{}, err
		}
		if inserted {
			s.metrics.Toggle(string(kind), true)
			return model.ToggleResult{Active: true}, nil
		}
	}

	s.log.WarnContext(ctx, "toggle gave up after concurrent interleaving",
		"actor_id", actorID, "target_id", targetID, "kind", kind)
	return model.ToggleResult{}, ErrConflictRetry
}

func (s *RelationService) ToggleVideoLike(ctx context.Context, actorID, videoID string) (model.ToggleResult, error) {
	return s.Toggle(ctx, actorID, videoID, model.KindVideoLike)
}

func (s *RelationService) ToggleCommentLike(ctx context.Context, actorID, commentID string) (model.ToggleResult, error) {
	return s.Toggle(ctx, actorID, commentID, model.KindCommentLike)
}

func (s *RelationService) ToggleTweetLike(ctx context.Context, actorID, tweetID string) (model.ToggleResult, error) {
	return s.Toggle(ctx, actorID, tweetID, model.KindTweetLike)
}

func (s *RelationService) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (model.ToggleResult, error) {
	return s.Toggle(ctx, subscriberID, channelID, model.KindSubscription)
}

// ListByActor pages through the actor's active relations of kind, newest first.
func (s *RelationService) ListByActor(ctx context.Context, actorID string, kind model.RelationKind, cursor string, limit int) (*model.RelationPage, error) {
	actorID, err := canonicalID(actorID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, model.RelationQuery{Kind: kind, ActorID: actorID, Limit: limit}, cursor)
}

// ListByTarget pages through relations of kind pointing at targetID, newest first.
func (s *RelationService) ListByTarget(ctx context.Context, targetID string, kind model.RelationKind, cursor string, limit int) (*model.RelationPage, error) {
	targetID, err := canonicalID(targetID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, model.RelationQuery{Kind: kind, TargetID: targetID, Limit: limit}, cursor)
}

func (s *RelationService) LikedVideos(ctx context.Context, actorID, cursor string, limit int) (*model.RelationPage, error) {
	return s.ListByActor(ctx, actorID, model.KindVideoLike, cursor, limit)
}

func (s *RelationService) SubscribedChannels(ctx context.Context, subscriberID, cursor string, limit int) (*model.RelationPage, error) {
	return s.ListByActor(ctx, subscriberID, model.KindSubscription, cursor, limit)
}

func (s *RelationService) ChannelSubscribers(ctx context.Context, channelID, cursor string, limit int) (*model.RelationPage, error) {
	return s.ListByTarget(ctx, channelID, model.KindSubscription, cursor, limit)
}

func (s *RelationService) list(ctx context.Context, q model.RelationQuery, cursor string) (*model.RelationPage, error) {
	if !q.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown relation kind %q", ErrInvalidArgument, q.Kind)
	}
	switch {
	case q.Limit < 0:
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidArgument)
	case q.Limit == 0:
		q.Limit = defaultPageSize
	case q.Limit > maxPageSize:
		q.Limit = maxPageSize
	}
	if cursor != "" {
		after, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		q.After = after
	}

	items, err := s.repo.ListRelations(ctx, q)
	if err != nil {
		return nil, err
	}

	page := &model.RelationPage{Items: items}
	if len(items) == q.Limit {
		last := items[len(items)-1]
		page.NextCursor = encodeCursor(model.RelationCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// canonicalID validates a UUID reference and returns its lower-case form.
func canonicalID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", ErrInvalidReference
	}
	return parsed.String(), nil
}

func encodeCursor(c model.RelationCursor) string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + "_" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (*model.RelationCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", ErrInvalidArgument)
	}
	nanos, id, ok := strings.Cut(string(raw), "_")
	if !ok {
		return nil, fmt.Errorf("%w: malformed cursor", ErrInvalidArgument)
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", ErrInvalidArgument)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", ErrInvalidArgument)
	}
	return &model.RelationCursor{CreatedAt: time.Unix(0, n).UTC(), ID: id}, nil
}
