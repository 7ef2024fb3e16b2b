package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/2beens/trainlog/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is the lifetime of regular email/password login sessions.
	DefaultTTL = 24 * 7 * time.Hour
	// SessionScopedTTL is the lifetime of social sign-in sessions. Those are
	// pinned to the current browser tab, so they never get the long TTL.
	SessionScopedTTL = 12 * time.Hour

	sessionKeyPrefix = "trainlog-session||"
	tokensSetKey     = "trainlog-sessions"
)

// Persistence is the session persistence policy: regular logins are
// long-lived ("local"), social sign-ins are browser-tab scoped ("session").
type Persistence string

const (
	PersistenceLocal   Persistence = "local"
	PersistenceSession Persistence = "session"
)

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// SocialProvider completes a social popup sign-in flow: it verifies
// the token the popup obtained and reports the verified email of the
// signed-in account.
type SocialProvider interface {
	Exchange(ctx context.Context, providerToken string) (email string, err error)
}

type Service struct {
	users       usersRepo
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)

	subsMutex   sync.Mutex
	subscribers []chan IdentityEvent
}

func NewAuthService(
	users usersRepo,
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		users:          users,
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// Subscribe returns a channel receiving identity transition events.
// The channel is buffered; slow consumers lose events rather than
// blocking sign-in / sign-out.
func (as *Service) Subscribe() <-chan IdentityEvent {
	as.subsMutex.Lock()
	defer as.subsMutex.Unlock()
	ch := make(chan IdentityEvent, 16)
	as.subscribers = append(as.subscribers, ch)
	return ch
}

func (as *Service) notify(event IdentityEvent) {
	as.subsMutex.Lock()
	defer as.subsMutex.Unlock()
	for _, ch := range as.subscribers {
		select {
		case ch <- event:
		default:
			log.Warnf("auth service: identity event dropped for slow subscriber")
		}
	}
}

func (as *Service) SignUp(ctx context.Context, email, password string, createdAt time.Time) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	if len(password) < 8 {
		return "", ErrPasswordTooShort
	}

	passwordHash, err := pkg.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := as.users.Add(ctx, User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	})
	if err != nil {
		return "", err
	}

	return as.startSession(ctx, user, PersistenceLocal, createdAt)
}

func (as *Service) SignIn(ctx context.Context, email, password string, createdAt time.Time) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := as.users.GetByEmail(ctx, email)
	if err != nil {
		log.Tracef("[email] failed login attempt for: %s", email)
		return "", ErrWrongCredentials
	}

	if !pkg.CheckPasswordHash(password, user.PasswordHash) {
		log.Tracef("[password] failed login attempt for: %s", email)
		return "", ErrWrongCredentials
	}

	return as.startSession(ctx, user, PersistenceLocal, createdAt)
}

// SignInWithProvider runs the social popup flow. The persistence policy is
// pinned to browser-tab scope BEFORE the provider exchange is invoked, so
// the social flow can never escalate to a long-lived session. Keep this
// ordering: set persistence first, then open the popup.
func (as *Service) SignInWithProvider(
	ctx context.Context,
	provider SocialProvider,
	providerToken string,
	createdAt time.Time,
) (string, error) {
	persistence := PersistenceSession

	email, err := provider.Exchange(ctx, providerToken)
	if err != nil {
		return "", fmt.Errorf("social sign-in failed: %s", err)
	}
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := as.users.GetByEmail(ctx, email)
	if err != nil {
		// first social sign-in for this account, create the user;
		// social accounts carry no usable password
		user, err = as.users.Add(ctx, User{
			ID:        uuid.NewString(),
			Email:     email,
			CreatedAt: createdAt,
		})
		if err != nil {
			return "", err
		}
	}

	return as.startSession(ctx, user, persistence, createdAt)
}

func (as *Service) startSession(
	ctx context.Context,
	user *User,
	persistence Persistence,
	createdAt time.Time,
) (string, error) {
	token, err := as.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	sessionVal := sessionValue(user.ID, user.Email, persistence, createdAt)
	cmdSet := as.redisClient.Set(ctx, sessionKey, sessionVal, 0)
	if err := cmdSet.Err(); err != nil {
		return "", err
	}

	// add token to list of sessions
	cmdSAdd := as.redisClient.SAdd(ctx, tokensSetKey, token)
	if err := cmdSAdd.Err(); err != nil {
		return "", err
	}

	as.notify(IdentityEvent{
		Type:     IdentitySignedIn,
		Identity: Identity{UserID: user.ID, Email: user.Email},
	})

	return token, nil
}

func (as *Service) SignOut(ctx context.Context, token string) (bool, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := as.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		return false, err
	}

	userID, email, _, _, err := parseSessionValue(cmd.Val())
	if err != nil {
		return false, err
	}

	cmdDel := as.redisClient.Del(ctx, sessionKey)
	if err := cmdDel.Err(); err != nil {
		return false, err
	}

	// remove token from the list of sessions
	cmdSRem := as.redisClient.SRem(ctx, tokensSetKey, token)
	if err := cmdSRem.Err(); err != nil {
		return false, err
	}

	as.notify(IdentityEvent{
		Type:     IdentitySignedOut,
		Identity: Identity{UserID: userID, Email: email},
	})

	return true, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context) {
	cmd := as.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Warnln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Warnf("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		sessionKey := sessionKeyPrefix + token
		cmd := as.redisClient.Get(ctx, sessionKey)
		if err := cmd.Err(); err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		_, _, persistence, createdAt, err := parseSessionValue(cmd.Val())
		if err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		if time.Since(createdAt) > sessionTTL(persistence, as.ttl) {
			log.Warnf("=>\twill clean the session with token: %s", token)
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		sessionKey := sessionKeyPrefix + token
		cmdDel := as.redisClient.Del(ctx, sessionKey)
		if err := cmdDel.Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}

		// remove token from the list of sessions
		cmdSRem := as.redisClient.SRem(ctx, tokensSetKey, token)
		if err := cmdSRem.Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}
	}
}

func sessionTTL(persistence Persistence, localTTL time.Duration) time.Duration {
	if persistence == PersistenceSession {
		return SessionScopedTTL
	}
	return localTTL
}

func sessionValue(userID, email string, persistence Persistence, createdAt time.Time) string {
	return strings.Join([]string{
		userID, email, string(persistence), strconv.FormatInt(createdAt.Unix(), 10),
	}, "||")
}

func parseSessionValue(val string) (userID, email string, persistence Persistence, createdAt time.Time, err error) {
	parts := strings.Split(val, "||")
	if len(parts) != 4 {
		return "", "", "", time.Time{}, fmt.Errorf("malformed session value: %s", val)
	}
	createdAtUnix, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return "", "", "", time.Time{}, fmt.Errorf("malformed session created at: %w", err)
	}
	return parts[0], parts[1], Persistence(parts[2]), time.Unix(createdAtUnix, 0), nil
}
