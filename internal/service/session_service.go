package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

// SessionStore persists console sessions.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session) error
	Delete(ctx context.Context, id string) error
}

// SessionService owns the lifecycle of console sessions and serialises every
// mutation of a session's roster.
type SessionService struct {
	store  SessionStore
	ttl    time.Duration
	logger *zap.Logger
	locks  *keyedMutex
	now    func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(store SessionStore, ttl time.Duration, logger *zap.Logger) *SessionService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{store: store, ttl: ttl, logger: logger, locks: newKeyedMutex(), now: time.Now}
}

// TTL returns the session lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Create starts a session for a directory login.
func (s *SessionService) Create(ctx context.Context, directoryToken string, user models.UserInfo, roster []models.Student) (*models.Session, error) {
	now := s.now().UTC()
	sess := &models.Session{
		ID:             uuid.NewString(),
		DirectoryToken: directoryToken,
		User:           user,
		Roster:         roster,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}
	if sess.Roster == nil {
		sess.Roster = []models.Student{}
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store session")
	}
	return sess, nil
}

// Get loads a session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, normaliseSessionErr(err)
	}
	return sess, nil
}

// Update applies fn to the session under its lock and saves the result. When
// fn returns an error nothing is saved.
func (s *SessionService) Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, normaliseSessionErr(err)
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store session")
	}
	return sess, nil
}

// Delete ends a session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

func normaliseSessionErr(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
}

// keyedMutex hands out one mutex per key and forgets it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock acquires the mutex for key and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
