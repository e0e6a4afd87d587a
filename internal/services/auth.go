package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/javuy-backend/internal/data/dberr"
	"github.com/yungbote/javuy-backend/internal/data/repos"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/apierr"
	"github.com/yungbote/javuy-backend/internal/platform/ctxutil"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

const (
	DefaultAccessTTL  = 7 * 24 * time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
	DefaultBcryptCost = 10

	maxPasswordBytes = 72
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

var errInvalidCredentials = apierr.Unauthorized("invalid_credentials", "Invalid credentials")

type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// Session is what a successful register, login or refresh hands back.
type Session struct {
	User         *types.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type JWTClaims struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, username, password string) (*Session, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, tokenString string) error
	Me(ctx context.Context) (*types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	chapterRepo   repos.ChapterRepo
	progressRepo  repos.ProgressRepo
	avatarService AvatarService
	leaderboard   LeaderboardService
	cfg           AuthConfig
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	chapterRepo repos.ChapterRepo,
	progressRepo repos.ProgressRepo,
	avatarService AvatarService,
	leaderboard LeaderboardService,
	cfg AuthConfig,
) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultBcryptCost
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		chapterRepo:   chapterRepo,
		progressRepo:  progressRepo,
		avatarService: avatarService,
		leaderboard:   leaderboard,
		cfg:           cfg,
	}
}

func (as *authService) Register(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apierr.BadRequest("missing_fields", "Username and password are required")
	}
	if !usernamePattern.MatchString(username) {
		return nil, apierr.BadRequest("invalid_username", "Username must be 3-32 letters, digits, '.', '_' or '-'")
	}
	if len(password) > maxPasswordBytes {
		return nil, apierr.BadRequest("invalid_password", "Password must be at most 72 bytes")
	}

	var (
		exists       bool
		hashed       []byte
		firstChapter *types.Chapter
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		exists, err = as.userRepo.UsernameExists(dbctx.Context{Ctx: gctx}, username)
		return err
	})
	g.Go(func() error {
		var err error
		hashed, err = bcrypt.GenerateFromPassword([]byte(password), as.cfg.BcryptCost)
		return err
	})
	g.Go(func() error {
		var err error
		firstChapter, err = as.chapterRepo.First(dbctx.Context{Ctx: gctx})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("register lookups: %w", err)
	}
	if exists {
		return nil, apierr.Conflict("username_taken", "Username already taken")
	}

	now := time.Now().UTC()
	user := &types.User{
		ID:           uuid.New(),
		Username:     username,
		Password:     string(hashed),
		Role:         types.RoleUser,
		XP:           0,
		Streak:       1,
		LastActiveAt: &now,
	}
	if err := as.avatarService.AssignDefault(ctx, user); err != nil {
		return nil, fmt.Errorf("assign avatar: %w", err)
	}

	var session *Session
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			return err
		}
		if firstChapter != nil {
			if err := as.progressRepo.Activate(dbc, user.ID, firstChapter.ID); err != nil {
				return fmt.Errorf("activate first chapter: %w", err)
			}
		}
		s, err := as.issueSession(dbc, user)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		if errors.Is(err, dberr.ErrConflict) {
			return nil, apierr.Conflict("username_taken", "Username already taken")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	as.leaderboard.Sync(ctx, user)
	as.log.Info("User registered", "user_id", user.ID)
	return session, nil
}

func (as *authService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apierr.BadRequest("missing_fields", "Username and password are required")
	}

	user, err := as.userRepo.GetByUsername(dbctx.Context{Ctx: ctx}, username)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}

	var session *Session
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if n, err := as.userTokenRepo.DeleteExpired(dbc, time.Now()); err != nil {
			as.log.Warn("Failed to prune expired sessions", "error", err)
		} else if n > 0 {
			as.log.Debug("Pruned expired sessions", "count", n)
		}
		s, err := as.issueSession(dbc, user)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.Unauthorized("invalid_refresh_token", "Refresh token required")
	}

	found, err := as.userTokenRepo.GetByRefreshTokens(dbctx.Context{Ctx: ctx}, []string{refreshToken})
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if len(found) == 0 {
		return nil, apierr.Unauthorized("invalid_refresh_token", "Invalid refresh token")
	}
	existing := found[0]
	if existing.ExpiresAt.Before(time.Now()) {
		if err := as.userTokenRepo.DeleteByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{existing.ID}); err != nil {
			as.log.Warn("Failed to delete expired session", "error", err)
		}
		return nil, apierr.Unauthorized("refresh_token_expired", "Refresh token expired")
	}

	var session *Session
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		user, err := as.userRepo.GetByID(dbc, existing.UserID)
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}
		if user == nil {
			return apierr.Unauthorized("invalid_refresh_token", "Invalid refresh token")
		}
		if err := as.userTokenRepo.DeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("remove old session: %w", err)
		}
		s, err := as.issueSession(dbc, user)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Logout never fails the request: a missing, expired or unknown token simply
// has nothing to revoke.
func (as *authService) Logout(ctx context.Context, tokenString string) error {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{tokenString})
	if err != nil {
		as.log.Warn("Logout lookup failed", "error", err)
		return nil
	}
	if len(found) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(found))
	for _, t := range found {
		ids = append(ids, t.ID)
	}
	if err := as.userTokenRepo.DeleteByIDs(dbc, ids); err != nil {
		as.log.Warn("Logout delete failed", "error", err)
	}
	return nil
}

func (as *authService) Me(ctx context.Context) (*types.User, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := as.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, errNotAuthenticated
	}
	return user, nil
}

func (as *authService) issueSession(dbc dbctx.Context, user *types.User) (*Session, error) {
	access, err := as.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	row := &types.UserToken{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    time.Now().Add(as.cfg.RefreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return &Session{
		User:         user,
		AccessToken:  access,
		RefreshToken: row.RefreshToken,
		ExpiresIn:    int64(as.cfg.AccessTTL / time.Second),
	}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Role:     user.Role,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.cfg.JWTSecret))
}

// SetContextFromToken validates the JWT, checks the session row still exists
// and attaches the caller with the role currently stored for them.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, errNotAuthenticated
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", "Invalid or expired token")
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Unauthorized("invalid_token", "Invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", "Invalid user id in token")
	}

	dbc := dbctx.Context{Ctx: ctx}
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("load session: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return ctx, apierr.Unauthorized("session_revoked", "Session is no longer valid")
	}
	user, err := as.userRepo.GetByID(dbc, userID)
	if err != nil {
		return ctx, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return ctx, apierr.Unauthorized("user_not_found", "User not found")
	}

	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.cfg.AccessTTL
}
