package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/javuy-backend/internal/data/repos"
	"github.com/yungbote/javuy-backend/internal/data/seed"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type SeedAccount struct {
	Username string
	Password string
}

type SeedOptions struct {
	Admin   SeedAccount
	Learner SeedAccount
}

type SeedReport struct {
	Users    int
	Chapters int
	Labs     int
}

type SeedService interface {
	// Seed wipes users, sessions, chapters and progress and loads the starter set.
	Seed(ctx context.Context, opts SeedOptions) (*SeedReport, error)
	// SeedLabs upserts the starter labs by id and leaves other labs alone.
	SeedLabs(ctx context.Context) (*SeedReport, error)
}

type seedService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	chapterRepo   repos.ChapterRepo
	progressRepo  repos.ProgressRepo
	labRepo       repos.LabRepo
	leaderboard   LeaderboardService
	fixtures      func() (*seed.Fixtures, error)
	bcryptCost    int
}

func NewSeedService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	chapterRepo repos.ChapterRepo,
	progressRepo repos.ProgressRepo,
	labRepo repos.LabRepo,
	leaderboard LeaderboardService,
	bcryptCost int,
) SeedService {
	if bcryptCost == 0 {
		bcryptCost = DefaultBcryptCost
	}
	return &seedService{
		db:            db,
		log:           log.With("service", "SeedService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		chapterRepo:   chapterRepo,
		progressRepo:  progressRepo,
		labRepo:       labRepo,
		leaderboard:   leaderboard,
		fixtures:      seed.Load,
		bcryptCost:    bcryptCost,
	}
}

func (ss *seedService) Seed(ctx context.Context, opts SeedOptions) (*SeedReport, error) {
	for _, acct := range []SeedAccount{opts.Admin, opts.Learner} {
		if strings.TrimSpace(acct.Username) == "" || acct.Password == "" {
			return nil, fmt.Errorf("seed accounts need a username and password")
		}
	}
	if strings.EqualFold(strings.TrimSpace(opts.Admin.Username), strings.TrimSpace(opts.Learner.Username)) {
		return nil, fmt.Errorf("admin and learner usernames must differ")
	}

	fx, err := ss.fixtures()
	if err != nil {
		return nil, err
	}
	chapters, err := fx.ChapterModels()
	if err != nil {
		return nil, err
	}

	admin, err := ss.account(opts.Admin, types.RoleAdmin, 9999, 100)
	if err != nil {
		return nil, err
	}
	learner, err := ss.account(opts.Learner, types.RoleUser, 0, 1)
	if err != nil {
		return nil, err
	}

	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := ss.progressRepo.FullDeleteAll(dbc); err != nil {
			return fmt.Errorf("clear progress: %w", err)
		}
		if err := ss.userTokenRepo.FullDeleteAll(dbc); err != nil {
			return fmt.Errorf("clear sessions: %w", err)
		}
		if err := ss.chapterRepo.FullDeleteAll(dbc); err != nil {
			return fmt.Errorf("clear chapters: %w", err)
		}
		if err := ss.userRepo.FullDeleteAll(dbc); err != nil {
			return fmt.Errorf("clear users: %w", err)
		}
		if _, err := ss.userRepo.Create(dbc, []*types.User{admin, learner}); err != nil {
			return fmt.Errorf("create users: %w", err)
		}
		if _, err := ss.chapterRepo.Create(dbc, chapters); err != nil {
			return fmt.Errorf("create chapters: %w", err)
		}
		first, err := ss.chapterRepo.First(dbc)
		if err != nil {
			return err
		}
		if first != nil {
			if err := ss.progressRepo.Activate(dbc, learner.ID, first.ID); err != nil {
				return fmt.Errorf("activate first chapter: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := ss.leaderboard.Rebuild(ctx); err != nil {
		ss.log.Warn("Leaderboard rebuild after seed failed", "error", err)
	}
	ss.log.Info("Database seeded", "chapters", len(chapters))
	return &SeedReport{Users: 2, Chapters: len(chapters)}, nil
}

func (ss *seedService) SeedLabs(ctx context.Context) (*SeedReport, error) {
	fx, err := ss.fixtures()
	if err != nil {
		return nil, err
	}
	labs, err := fx.LabModels()
	if err != nil {
		return nil, err
	}
	if err := ss.labRepo.Upsert(dbctx.Context{Ctx: ctx}, labs); err != nil {
		return nil, fmt.Errorf("upsert labs: %w", err)
	}
	ss.log.Info("Labs seeded", "labs", len(labs))
	return &SeedReport{Labs: len(labs)}, nil
}

func (ss *seedService) account(acct SeedAccount, role string, xp, streak int) (*types.User, error) {
	username := strings.TrimSpace(acct.Username)
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("invalid seed username %q", username)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(acct.Password), ss.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	return &types.User{
		Username:     username,
		Password:     string(hashed),
		Role:         role,
		XP:           xp,
		Streak:       streak,
		Avatar:       DicebearURL(username),
		LastActiveAt: &now,
	}, nil
}
