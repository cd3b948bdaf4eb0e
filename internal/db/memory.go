package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vidtube/backend/internal/model"
)

// Memory is an in-process store with the same contract as Postgres: writes
// that Postgres performs as one conditional statement are applied under a
// single lock acquisition. Used for local runs without a database and in tests.
type Memory struct {
	mu        sync.Mutex
	users     map[string]*model.User
	relations map[model.RelationKey]model.Relation
	lastAt    time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]*model.User),
		relations: make(map[model.RelationKey]model.Relation),
	}
}

// now returns strictly increasing timestamps so ordering by created_at is total.
func (m *Memory) now() time.Time {
	t := time.Now().UTC()
	if !t.After(m.lastAt) {
		t = m.lastAt.Add(time.Microsecond)
	}
	m.lastAt = t
	return t
}

func cloneUser(u *model.User) *model.User {
	c := *u
	if u.RefreshTokenHash != nil {
		h := *u.RefreshTokenHash
		c.RefreshTokenHash = &h
	}
	return &c
}

func (m *Memory) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return nil, fmt.Errorf("%w: users_pkey", ErrUniqueViolation)
	}
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return nil, fmt.Errorf("%w: users_username_key", ErrUniqueViolation)
		}
		if existing.Email == user.Email {
			return nil, fmt.Errorf("%w: users_email_key", ErrUniqueViolation)
		}
	}

	stored := cloneUser(user)
	stored.RefreshTokenHash = nil
	stored.CreatedAt = m.now()
	stored.UpdatedAt = stored.CreatedAt
	m.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (m *Memory) GetUserByLogin(ctx context.Context, identifier string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == identifier || u.Email == identifier {
			return cloneUser(u), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *Memory) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneUser(u), nil
}

func (m *Memory) SwapRefreshTokenHash(ctx context.Context, userID string, expected, next *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return false, nil
	}
	if !equalOptional(u.RefreshTokenHash, expected) {
		return false, nil
	}
	if next == nil {
		u.RefreshTokenHash = nil
	} else {
		h := *next
		u.RefreshTokenHash = &h
	}
	u.UpdatedAt = m.now()
	return true, nil
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *Memory) ClearRefreshTokenHash(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.RefreshTokenHash = nil
	u.UpdatedAt = m.now()
	return nil
}

func (m *Memory) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = m.now()
	return nil
}

func (m *Memory) UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	for id, other := range m.users {
		if id != userID && other.Email == email {
			return nil, fmt.Errorf("%w: users_email_key", ErrUniqueViolation)
		}
	}
	u.FullName = fullName
	u.Email = email
	u.UpdatedAt = m.now()
	return cloneUser(u), nil
}

func (m *Memory) SwapMediaRef(ctx context.Context, userID string, slot model.MediaSlot, ref string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return "", pgx.ErrNoRows
	}

	var previous string
	switch slot {
	case model.SlotAvatar:
		previous, u.AvatarRef = u.AvatarRef, ref
	case model.SlotCover:
		previous, u.CoverRef = u.CoverRef, ref
	default:
		return "", fmt.Errorf("invalid media slot: %s", slot)
	}
	u.UpdatedAt = m.now()
	return previous, nil
}

func (m *Memory) DeleteRelation(ctx context.Context, key model.RelationKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.relations[key]; !ok {
		return false, nil
	}
	delete(m.relations, key)
	return true, nil
}

func (m *Memory) InsertRelation(ctx context.Context, rel model.Relation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rel.Key()
	if _, ok := m.relations[key]; ok {
		return false, nil
	}
	rel.CreatedAt = m.now()
	m.relations[key] = rel
	return true, nil
}

func (m *Memory) ListRelations(ctx context.Context, q model.RelationQuery) ([]model.Relation, error) {
	if q.ActorID == "" && q.TargetID == "" {
		return nil, fmt.Errorf("relation query requires actor or target")
	}

	m.mu.Lock()
	matched := make([]model.Relation, 0)
	for _, r := range m.relations {
		if r.Kind != q.Kind {
			continue
		}
		if q.TargetID != "" {
			if r.TargetID != q.TargetID {
				continue
			}
		} else if r.ActorID != q.ActorID {
			continue
		}
		matched = append(matched, r)
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	if q.After != nil {
		start := len(matched)
		for i, r := range matched {
			if r.CreatedAt.Before(q.After.CreatedAt) ||
				(r.CreatedAt.Equal(q.After.CreatedAt) && r.ID < q.After.ID) {
				start = i
				break
			}
		}
		matched = matched[start:]
	}

	limit := normalizeLimit(q.Limit)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
