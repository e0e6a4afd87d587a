package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/javuy-backend/internal/data/repos"
	"github.com/yungbote/javuy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/apierr"
	"github.com/yungbote/javuy-backend/internal/platform/ctxutil"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/objectstore"
	"github.com/yungbote/javuy-backend/internal/platform/runner"
)

const testSecret = "test-secret"

type testEnv struct {
	db *gorm.DB

	users    repos.UserRepo
	tokens   repos.UserTokenRepo
	chapters repos.ChapterRepo
	progress repos.ProgressRepo
	labs     repos.LabRepo

	bucket objectstore.BucketService
	runner *fakeRunner

	leaderboard LeaderboardService
	avatar      AvatarService
	compile     CompileService
	auth        AuthService
	journey     JourneyService
	chapterSvc  ChapterService
	labSvc      LabService
	profile     ProfileService
	upload      UploadService
	seed        SeedService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithDB(t, testutil.SQLiteDB(t))
}

func newTestEnvWithDB(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()
	log := testutil.Logger(t)

	bucket, err := objectstore.NewDiskBucketService(log, t.TempDir(), "/uploads")
	require.NoError(t, err)

	env := &testEnv{
		db:       db,
		users:    repos.NewUserRepo(db, log),
		tokens:   repos.NewUserTokenRepo(db, log),
		chapters: repos.NewChapterRepo(db, log),
		progress: repos.NewProgressRepo(db, log),
		labs:     repos.NewLabRepo(db, log),
		bucket:   bucket,
		runner:   &fakeRunner{},
	}
	env.leaderboard = NewLeaderboardService(db, log, env.users, nil)
	env.avatar, err = NewAvatarService(log, AvatarModeDicebear, bucket)
	require.NoError(t, err)
	env.compile = NewCompileService(log, env.runner)
	env.auth = NewAuthService(db, log, env.users, env.tokens, env.chapters, env.progress, env.avatar, env.leaderboard, AuthConfig{
		JWTSecret:  testSecret,
		BcryptCost: bcrypt.MinCost,
	})
	env.journey = NewJourneyService(db, log, env.users, env.chapters, env.progress, env.compile, env.leaderboard)
	env.chapterSvc = NewChapterService(db, log, env.chapters, env.progress)
	env.labSvc = NewLabService(db, log, env.labs)
	env.profile = NewProfileService(db, log, env.users, env.chapters, env.progress, env.avatar, env.leaderboard)
	env.upload = NewUploadService(log, bucket)
	env.seed = NewSeedService(db, log, env.users, env.tokens, env.chapters, env.progress, env.labs, env.leaderboard, bcrypt.MinCost)
	return env
}

func (e *testEnv) seedUser(t *testing.T, username string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), e.db, username)
}

func (e *testEnv) seedAdmin(t *testing.T, username string) *types.User {
	t.Helper()
	return testutil.SeedAdmin(t, context.Background(), e.db, username)
}

func (e *testEnv) seedChapter(t *testing.T, order int, blocks ...types.ContentBlock) *types.Chapter {
	t.Helper()
	return testutil.SeedChapter(t, context.Background(), e.db, order, blocks...)
}

func (e *testEnv) reload(t *testing.T, u *types.User) *types.User {
	t.Helper()
	var out types.User
	require.NoError(t, e.db.First(&out, "id = ?", u.ID).Error)
	return &out
}

func (e *testEnv) statusOf(t *testing.T, u *types.User, ch *types.Chapter) string {
	t.Helper()
	var p types.Progress
	err := e.db.Where("user_id = ? AND chapter_id = ?", u.ID, ch.ID).First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return ""
	}
	require.NoError(t, err)
	return p.Status
}

func as(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	})
}

type fakeRunner struct {
	mu     sync.Mutex
	calls  []runner.Request
	result *runner.Result
	err    error
}

func (f *fakeRunner) Name() string { return "fake" }

func (f *fakeRunner) Run(ctx context.Context, req runner.Request) (*runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		r := *f.result
		return &r, nil
	}
	return &runner.Result{}, nil
}

func (f *fakeRunner) lastCall(t *testing.T) runner.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls, "runner was not called")
	return f.calls[len(f.calls)-1]
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	ae, ok := apierr.As(err)
	require.Truef(t, ok, "expected *apierr.Error, got %T: %v", err, err)
	require.Equal(t, status, ae.Status, "status for %v", err)
	if code != "" {
		require.Equal(t, code, ae.Code, "code for %v", err)
	}
}

func dbc(ctx context.Context) dbctx.Context { return dbctx.Context{Ctx: ctx} }
