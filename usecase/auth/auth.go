package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/clock"
	"github.com/fastygo/auraplan/internal/infrastructure/localstore"
	"github.com/fastygo/auraplan/repository"
)

const anonymousPrefix = "anon-"

// Adopter reassigns local entities to a new owner.
type Adopter interface {
	Adopt(ctx context.Context, owner string) (int, error)
}

// UseCase manages the current identity. The identity lives in the local store so
// it survives restarts; sessions are cached in the session repository.
type UseCase struct {
	store    *localstore.Store
	sessions repository.SessionRepository
	adopters []Adopter
	clock    clock.Clock
	ttl      time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	listeners []func(*domain.Identity)
}

func New(store *localstore.Store, sessions repository.SessionRepository, clk clock.Clock, ttl time.Duration, logger *zap.Logger, adopters ...Adopter) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &UseCase{
		store:    store,
		sessions: sessions,
		adopters: adopters,
		clock:    clk,
		ttl:      ttl,
		logger:   logger.Named("auth"),
	}
}

// OnIdentityChange registers fn to run after every sign-in and sign-out.
func (uc *UseCase) OnIdentityChange(fn func(*domain.Identity)) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.listeners = append(uc.listeners, fn)
}

// CurrentIdentity returns the persisted identity or nil when signed out.
func (uc *UseCase) CurrentIdentity(ctx context.Context) (*domain.Identity, error) {
	var identity domain.Identity
	if !uc.store.Get(localstore.KeyIdentity, &identity) || identity.ID == "" {
		return nil, nil
	}
	return &identity, nil
}

// SignIn starts a session for userID, or an anonymous one when userID is empty.
// Upgrading from an anonymous identity hands the guest's local data to the user.
func (uc *UseCase) SignIn(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	if ttl <= 0 {
		ttl = uc.ttl
	}
	anonymous := userID == ""
	if anonymous {
		userID = anonymousPrefix + uuid.NewString()
	}
	previous, _ := uc.CurrentIdentity(ctx)

	now := uc.clock.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Anonymous: anonymous,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if uc.sessions != nil {
		if err := uc.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
	}

	identity := session.Identity()
	if err := uc.store.Put(localstore.KeyIdentity, identity); err != nil {
		return nil, err
	}

	if previous != nil && previous.Anonymous && !anonymous {
		for _, a := range uc.adopters {
			n, err := a.Adopt(ctx, identity.ID)
			if err != nil {
				uc.logger.Error("failed to adopt guest data", zap.Error(err))
				continue
			}
			uc.logger.Info("guest data adopted", zap.Int("entities", n))
		}
	}

	uc.logger.Info("signed in", zap.String("user_id", identity.ID), zap.Bool("anonymous", anonymous))
	uc.emit(&identity)
	return session, nil
}

// SignOut forgets the identity. The session, when given, is revoked too.
func (uc *UseCase) SignOut(ctx context.Context, sessionID string) error {
	if sessionID != "" && uc.sessions != nil {
		if err := uc.sessions.Delete(ctx, sessionID); err != nil {
			return err
		}
	}
	if err := uc.store.Delete(localstore.KeyIdentity); err != nil {
		return err
	}
	uc.emit(nil)
	return nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if uc.sessions == nil {
		return nil, domain.ErrSessionNotFound
	}
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(uc.clock.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*domain.Session, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = uc.ttl
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(ttl.Seconds())); err != nil {
		return nil, err
	}
	session.ExpiresAt = uc.clock.Now().Add(ttl)
	return session, nil
}

func (uc *UseCase) emit(identity *domain.Identity) {
	uc.mu.Lock()
	listeners := make([]func(*domain.Identity), len(uc.listeners))
	copy(listeners, uc.listeners)
	uc.mu.Unlock()
	for _, fn := range listeners {
		fn(identity)
	}
}
