package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/javuy-backend/internal/data/repos"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/apierr"
	"github.com/yungbote/javuy-backend/internal/platform/ctxutil"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

var (
	errChapterNotFound = apierr.NotFound("chapter_not_found", "Chapter not found")
	errChapterLocked   = apierr.Forbidden("chapter_locked", "Complete the previous chapter first")
)

// ChapterView is a chapter with decoded blocks and the caller's status.
type ChapterView struct {
	*types.Chapter
	Blocks []types.ContentBlock `json:"content"`
	Status string               `json:"status"`
}

type JourneyUser struct {
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Streak   int    `json:"streak"`
	Avatar   string `json:"avatar"`
}

type Journey struct {
	User    JourneyUser   `json:"user"`
	Journey []ChapterView `json:"journey"`
}

type CompleteResult struct {
	Message          string     `json:"message"`
	XP               int        `json:"xp"`
	Streak           int        `json:"streak,omitempty"`
	NextChapterID    *uuid.UUID `json:"next_chapter_id"`
	AlreadyCompleted bool       `json:"-"`
}

type CheckRequest struct {
	BlockIndex int    `json:"blockIndex"`
	Code       string `json:"code"`
	Answer     *int   `json:"answer"`
}

type CheckResult struct {
	Passed         bool   `json:"passed"`
	Output         string `json:"output,omitempty"`
	Error          string `json:"error,omitempty"`
	ExpectedOutput string `json:"expectedOutput,omitempty"`
}

type JourneyService interface {
	GetJourney(ctx context.Context) (*Journey, error)
	GetChapter(ctx context.Context, chapterID uuid.UUID) (*ChapterView, error)
	Complete(ctx context.Context, chapterID uuid.UUID) (*CompleteResult, error)
	Reset(ctx context.Context) error
	CheckExercise(ctx context.Context, chapterID uuid.UUID, req CheckRequest) (*CheckResult, error)
}

type journeyService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	chapterRepo  repos.ChapterRepo
	progressRepo repos.ProgressRepo
	compile      CompileService
	leaderboard  LeaderboardService
	now          func() time.Time
}

func NewJourneyService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	chapterRepo repos.ChapterRepo,
	progressRepo repos.ProgressRepo,
	compile CompileService,
	leaderboard LeaderboardService,
) JourneyService {
	return &journeyService{
		db:           db,
		log:          log.With("service", "JourneyService"),
		userRepo:     userRepo,
		chapterRepo:  chapterRepo,
		progressRepo: progressRepo,
		compile:      compile,
		leaderboard:  leaderboard,
		now:          time.Now,
	}
}

func (js *journeyService) GetJourney(ctx context.Context) (*Journey, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}

	user, err := js.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apierr.NotFound("user_not_found", "User not found")
	}
	chapters, err := js.chapterRepo.ListOrdered(dbc)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	rows, err := js.progressRepo.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	statuses := EffectiveStatuses(chapters, rows)
	views := make([]ChapterView, 0, len(chapters))
	for i, ch := range chapters {
		view, err := newChapterView(ch, statuses[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	return &Journey{
		User: JourneyUser{
			Username: user.Username,
			XP:       user.XP,
			Streak:   user.Streak,
			Avatar:   user.Avatar,
		},
		Journey: views,
	}, nil
}

func (js *journeyService) GetChapter(ctx context.Context, chapterID uuid.UUID) (*ChapterView, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}

	ch, err := js.chapterRepo.GetByID(dbc, chapterID)
	if err != nil {
		return nil, fmt.Errorf("load chapter: %w", err)
	}
	if ch == nil {
		return nil, errChapterNotFound
	}
	status, err := js.effectiveStatus(dbc, userID, ch)
	if err != nil {
		return nil, err
	}
	if status == types.StatusLocked && !ctxutil.GetRequestData(ctx).IsAdmin() {
		return nil, errChapterLocked
	}
	return newChapterView(ch, status)
}

func (js *journeyService) Complete(ctx context.Context, chapterID uuid.UUID) (*CompleteResult, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if chapterID == uuid.Nil {
		return nil, apierr.BadRequest("missing_chapter_id", "chapterId is required")
	}

	var (
		result *CompleteResult
		user   *types.User
	)
	err = js.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		ch, err := js.chapterRepo.GetByID(dbc, chapterID)
		if err != nil {
			return fmt.Errorf("load chapter: %w", err)
		}
		if ch == nil {
			return errChapterNotFound
		}
		status, err := js.effectiveStatus(dbc, userID, ch)
		if err != nil {
			return err
		}

		switch status {
		case types.StatusCompleted:
			result, err = js.alreadyCompleted(dbc, userID)
			return err
		case types.StatusLocked:
			return apierr.Conflict("chapter_locked", "Complete the previous chapter first")
		}

		now := js.now().UTC()
		changed, err := js.progressRepo.MarkCompleted(dbc, userID, ch.ID, now)
		if err != nil {
			return fmt.Errorf("mark completed: %w", err)
		}
		// A concurrent request completed the chapter after our status read.
		if changed == 0 {
			result, err = js.alreadyCompleted(dbc, userID)
			return err
		}
		if err := js.userRepo.AddXP(dbc, userID, ch.XPReward); err != nil {
			return fmt.Errorf("award xp: %w", err)
		}
		u, err := js.userRepo.GetByID(dbc, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if u == nil {
			return apierr.NotFound("user_not_found", "User not found")
		}
		streak := NextStreak(u.Streak, u.LastActiveAt, now)
		if err := js.userRepo.UpdateStreak(dbc, userID, streak, now); err != nil {
			return fmt.Errorf("update streak: %w", err)
		}
		u.Streak = streak
		u.LastActiveAt = &now

		result = &CompleteResult{Message: "Chapter completed", XP: u.XP, Streak: streak}
		next, err := js.chapterRepo.Next(dbc, ch.Order)
		if err != nil {
			return fmt.Errorf("find next chapter: %w", err)
		}
		if next != nil {
			if err := js.progressRepo.Activate(dbc, userID, next.ID); err != nil {
				return fmt.Errorf("unlock next chapter: %w", err)
			}
			id := next.ID
			result.NextChapterID = &id
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	if user != nil {
		js.leaderboard.Sync(ctx, user)
		js.log.Info("Chapter completed", "user_id", userID, "chapter_id", chapterID, "xp", user.XP)
	}
	return result, nil
}

func (js *journeyService) alreadyCompleted(dbc dbctx.Context, userID uuid.UUID) (*CompleteResult, error) {
	u, err := js.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", "User not found")
	}
	return &CompleteResult{Message: "Already completed", XP: u.XP, Streak: u.Streak, AlreadyCompleted: true}, nil
}

func (js *journeyService) Reset(ctx context.Context) error {
	userID, err := callerID(ctx)
	if err != nil {
		return err
	}

	var user *types.User
	err = js.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := js.userRepo.ResetStats(dbc, userID); err != nil {
			return fmt.Errorf("reset stats: %w", err)
		}
		if err := js.progressRepo.FullDeleteByUserIDs(dbc, []uuid.UUID{userID}); err != nil {
			return fmt.Errorf("clear progress: %w", err)
		}
		first, err := js.chapterRepo.First(dbc)
		if err != nil {
			return fmt.Errorf("find first chapter: %w", err)
		}
		if first != nil {
			if err := js.progressRepo.Activate(dbc, userID, first.ID); err != nil {
				return fmt.Errorf("activate first chapter: %w", err)
			}
		}
		user, err = js.userRepo.GetByID(dbc, userID)
		return err
	})
	if err != nil {
		return err
	}
	js.leaderboard.Sync(ctx, user)
	return nil
}

func (js *journeyService) CheckExercise(ctx context.Context, chapterID uuid.UUID, req CheckRequest) (*CheckResult, error) {
	view, err := js.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if req.BlockIndex < 0 || req.BlockIndex >= len(view.Blocks) {
		return nil, apierr.BadRequest("invalid_block", "Block index out of range")
	}
	block := view.Blocks[req.BlockIndex]

	switch block.Type {
	case types.BlockQuiz:
		if req.Answer == nil {
			return nil, apierr.BadRequest("missing_answer", "answer is required")
		}
		return &CheckResult{Passed: block.Answer != nil && *req.Answer == *block.Answer}, nil

	case types.BlockCode:
		src := req.Code
		if strings.TrimSpace(src) == "" {
			src = block.Value
		}
		res, err := js.compile.Compile(ctx, CompileRequest{Code: src})
		if err != nil {
			return nil, err
		}
		out := &CheckResult{Output: res.Output, Error: res.Error, ExpectedOutput: block.ExpectedOutput}
		out.Passed = exercisePassed(block, res)
		return out, nil
	}
	return nil, apierr.New(http.StatusBadRequest, "not_an_exercise", fmt.Errorf("block %d is not a code or quiz block", req.BlockIndex))
}

func exercisePassed(block types.ContentBlock, res *CompileResult) bool {
	if strings.TrimSpace(block.ExpectedOutput) == "" {
		return strings.TrimSpace(res.Error) == ""
	}
	got := res.Output
	if got == "" {
		got = res.Error
	}
	return strings.TrimSpace(got) == strings.TrimSpace(block.ExpectedOutput)
}

// effectiveStatus resolves one chapter's status for userID. A stored row wins;
// otherwise the chapter is active when it is first or its predecessor is done.
func (js *journeyService) effectiveStatus(dbc dbctx.Context, userID uuid.UUID, ch *types.Chapter) (string, error) {
	row, err := js.progressRepo.GetByUserAndChapter(dbc, userID, ch.ID)
	if err != nil {
		return "", fmt.Errorf("load progress: %w", err)
	}
	if row != nil {
		return row.Status, nil
	}
	prev, err := js.chapterRepo.Previous(dbc, ch.Order)
	if err != nil {
		return "", fmt.Errorf("find previous chapter: %w", err)
	}
	if prev == nil {
		return types.StatusActive, nil
	}
	prevRow, err := js.progressRepo.GetByUserAndChapter(dbc, userID, prev.ID)
	if err != nil {
		return "", fmt.Errorf("load progress: %w", err)
	}
	if prevRow != nil && prevRow.Status == types.StatusCompleted {
		return types.StatusActive, nil
	}
	return types.StatusLocked, nil
}

// EffectiveStatuses computes statuses for chapters sorted by order.
func EffectiveStatuses(chapters []*types.Chapter, rows []*types.Progress) []string {
	byChapter := make(map[uuid.UUID]string, len(rows))
	for _, p := range rows {
		byChapter[p.ChapterID] = p.Status
	}
	out := make([]string, len(chapters))
	for i, ch := range chapters {
		if s, ok := byChapter[ch.ID]; ok {
			out[i] = s
			continue
		}
		switch {
		case i == 0:
			out[i] = types.StatusActive
		case out[i-1] == types.StatusCompleted:
			out[i] = types.StatusActive
		default:
			out[i] = types.StatusLocked
		}
	}
	return out
}

// NextStreak: same UTC day keeps the streak, the following day extends it,
// anything else starts over at 1.
func NextStreak(current int, lastActive *time.Time, now time.Time) int {
	if lastActive == nil {
		return 1
	}
	days := utcDay(now).Sub(utcDay(*lastActive)) / (24 * time.Hour)
	switch days {
	case 0:
		if current < 1 {
			return 1
		}
		return current
	case 1:
		return current + 1
	}
	return 1
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newChapterView(ch *types.Chapter, status string) (*ChapterView, error) {
	blocks, err := ch.Blocks()
	if err != nil {
		return nil, fmt.Errorf("decode chapter %s content: %w", ch.ID, err)
	}
	return &ChapterView{Chapter: ch, Blocks: blocks, Status: status}, nil
}
