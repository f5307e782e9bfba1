package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	minPasswordLen    = 8
)

// AccountService issues and rotates the session cookies' tokens.
type AccountService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Events        events.Publisher
	Now           func() time.Time
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AccountService) ttl() (time.Duration, time.Duration) {
	a, r := s.AccessTTL, s.RefreshTTL
	if a <= 0 {
		a = DefaultAccessTTL
	}
	if r <= 0 {
		r = DefaultRefreshTTL
	}
	return a, r
}

func (s *AccountService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "account.register")

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: valid email required", ErrValidation)
	}
	if len(req.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: pwHash,
		Role:         "user",
		Name:         strings.TrimSpace(req.Name),
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}

	if s.Events != nil {
		bestEffort(l, "publish_event_error", s.Events.Publish(ctx, events.TopicUsers, user.ID.String(), events.UserEvent{
			Type: events.UserRegistered, UserID: user.ID.String(), Email: user.Email, At: s.now().UTC(),
		}))
	}
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*tokens.Pair, *models.User, error) {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	if user.BannedAt(s.now()) {
		return nil, nil, ErrBanned
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Repo.TouchSignIn(ctx, user.ID, s.now().UTC()); err != nil {
		logging.FromContext(ctx).Warn("touch_sign_in_error", "user_id", user.ID, "error", err)
	}
	return pair, user, nil
}

func (s *AccountService) sign(user *models.User) (*tokens.Pair, *models.RefreshToken, error) {
	accessTTL, refreshTTL := s.ttl()
	now := s.now()
	accessExp := now.Add(accessTTL)
	refreshExp := now.Add(refreshTTL)

	access, err := tokens.SignAccess(user.Role, user.ID.String(), accessExp, s.AccessSecret)
	if err != nil {
		return nil, nil, err
	}
	jti := jwthelp.NewJTI()
	refresh, err := tokens.SignRefresh(user.ID.String(), jti, refreshExp, s.RefreshSecret)
	if err != nil {
		return nil, nil, err
	}

	rec := &models.RefreshToken{
		TokenHash: jwthelp.Sha256Hex(refresh),
		JTI:       jti,
		UserID:    user.ID,
		ExpiresAt: refreshExp.UTC(),
	}
	return &tokens.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Role:         user.Role,
	}, rec, nil
}

func (s *AccountService) issue(ctx context.Context, user *models.User) (*tokens.Pair, error) {
	pair, rec, err := s.sign(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, rec); err != nil {
		return nil, err
	}
	return pair, nil
}

// Refresh rotates refreshToken. The role is re-read so demotions and bans apply.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidCredentials)
	}
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.BannedAt(s.now()) {
		return nil, ErrBanned
	}

	pair, rec, err := s.sign(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, rec); err != nil {
		if errors.Is(err, repo.ErrTokenRevoked) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return pair, nil
}

func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

func (s *AccountService) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, req transport.UpdateProfileRequest) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		a := *req.Address
		a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
		if a.Country != "" && len(a.Country) != 2 {
			return nil, fmt.Errorf("%w: country must be a 2-letter code", ErrValidation)
		}
		u.Address = a
	}
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CustomerInfo builds checkout prefill data from the stored profile.
func CustomerInfo(u *models.User) *transport.CustomerInfo {
	ci := &transport.CustomerInfo{Email: u.Email, Name: u.Name, Phone: u.Phone}
	if u.Address.Line1 != "" || u.Address.City != "" {
		ci.Address = &transport.CustomerAddress{
			Line1:      u.Address.Line1,
			Line2:      u.Address.Line2,
			City:       u.Address.City,
			State:      u.Address.State,
			PostalCode: u.Address.PostalCode,
			Country:    u.Address.Country,
		}
	}
	return ci
}
