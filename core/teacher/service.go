package teacher

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/mergington/roster/core"
)

const tokenBytes = 32

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("account not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidCredentials = core.NewError(core.KindUnauthorized, "Invalid username or password")
	ErrUnauthorized       = core.NewError(core.KindUnauthorized, "Not authenticated")

	dummyHash     []byte
	dummyHashOnce sync.Once
)

type (
	AccountRepository interface {
		GetAccount(ctx context.Context, username string) (Account, error)
		// SaveAccount creates the account or replaces the one with the same username.
		SaveAccount(ctx context.Context, acct Account) error
	}

	SessionStore interface {
		SaveSession(ctx context.Context, sess Session) error
		GetSession(ctx context.Context, token string) (Session, error)
		// DeleteSession is a no-op for unknown tokens.
		DeleteSession(ctx context.Context, token string) error
	}

	Service struct {
		accounts AccountRepository
		sessions SessionStore
		ttl      time.Duration
	}
)

func NewService(accounts AccountRepository, sessions SessionStore, ttl time.Duration) *Service {
	return &Service{accounts: accounts, sessions: sessions, ttl: ttl}
}

// Login checks the credentials and opens a new Session.
func (svc *Service) Login(ctx context.Context, username, pwd string) (Session, error) {
	acct, err := svc.accounts.GetAccount(ctx, core.CleanString(username, true /* lower */))
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Session{}, errors.Wrap(err, "getting account")
		}
		// keep timing similar for unknown usernames
		_ = bcrypt.CompareHashAndPassword(getDummyHash(), []byte(pwd))
		return Session{}, ErrInvalidCredentials
	}
	if err = acct.CheckPassword(pwd); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return Session{}, errors.Wrap(err, "generating token")
	}
	now := NowFunc().UTC()
	sess := Session{
		Token:     token,
		Username:  acct.Username,
		Role:      acct.Role,
		Name:      acct.Name,
		CreatedAt: now,
		ExpiresAt: now.Add(svc.ttl),
	}
	if err = svc.sessions.SaveSession(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "saving session")
	}
	return sess, nil
}

func (svc *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return svc.sessions.DeleteSession(ctx, token)
}

// Authenticate returns the live Session identified by token. Expired sessions are deleted.
func (svc *Service) Authenticate(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrUnauthorized
	}
	sess, err := svc.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Cause(err) == ErrSessionNotFound {
			return Session{}, ErrUnauthorized
		}
		return Session{}, errors.Wrap(err, "getting session")
	}
	if sess.Expired(NowFunc()) {
		if err = svc.sessions.DeleteSession(ctx, token); err != nil {
			return Session{}, errors.Wrap(err, "deleting expired session")
		}
		return Session{}, ErrUnauthorized
	}
	return sess, nil
}

func (svc *Service) Get(ctx context.Context, username string) (Account, error) {
	return svc.accounts.GetAccount(ctx, core.CleanString(username, true /* lower */))
}

// Create adds a new Account, or replaces the one with the same username.
func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	acct := Account{
		Username: na.Username,
		Name:     na.Name,
		Role:     na.Role,
	}
	if err := acct.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	if err := svc.accounts.SaveAccount(ctx, acct); err != nil {
		return Account{}, errors.Wrap(err, "saving account")
	}
	return acct, nil
}

func (svc *Service) ResetPassword(ctx context.Context, acct Account, rp ResetPassword) error {
	if err := acct.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return errors.Wrap(svc.accounts.SaveAccount(ctx, acct), "saving account")
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func getDummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return dummyHash
}
