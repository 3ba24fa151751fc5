package services

import (
  "fmt"
  "sync/atomic"
  "testing"

  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  gormlogger "gorm.io/gorm/logger"

  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/repos"
  "github.com/talkbase/conversation-backend/internal/types"
)

var testDBCounter int64

// openTestDB gives every test its own shared in-memory sqlite database,
// pinned to a single connection so concurrent transactions serialize the
// way a single Postgres row lock would.
func openTestDB(t *testing.T) *gorm.DB {
  t.Helper()
  n := atomic.AddInt64(&testDBCounter, 1)
  dsn := fmt.Sprintf("file:servicetest%d?mode=memory&cache=shared", n)
  gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
    Logger: gormlogger.Default.LogMode(gormlogger.Silent),
  })
  if err != nil {
    t.Fatalf("open sqlite: %v", err)
  }
  sqlDB, err := gdb.DB()
  if err != nil {
    t.Fatalf("unwrap sql.DB: %v", err)
  }
  sqlDB.SetMaxOpenConns(1)
  t.Cleanup(func() { _ = sqlDB.Close() })

  if err := gdb.AutoMigrate(
    &types.User{},
    &types.UserToken{},
    &types.UserProfile{},
    &types.ConversationSession{},
    &types.Message{},
    &types.ConversationAnalytics{},
    &types.MessageReaction{},
    &types.ConversationTemplate{},
  ); err != nil {
    t.Fatalf("auto migrate: %v", err)
  }
  return gdb
}

func testLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("init logger: %v", err)
  }
  return log
}

type testEnv struct {
  db  *gorm.DB
  log *logger.Logger

  userRepo      repos.UserRepo
  tokenRepo     repos.UserTokenRepo
  profileRepo   repos.UserProfileRepo
  sessionRepo   repos.SessionRepo
  messageRepo   repos.MessageRepo
  analyticsRepo repos.AnalyticsRepo
  reactionRepo  repos.ReactionRepo
  templateRepo  repos.TemplateRepo

  sessions  SessionService
  messages  MessageService
  analytics AnalyticsService
  reactions ReactionService
  templates TemplateService
  profiles  ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
  t.Helper()
  gdb := openTestDB(t)
  log := testLogger(t)

  env := &testEnv{db: gdb, log: log}
  env.userRepo = repos.NewUserRepo(gdb, log)
  env.tokenRepo = repos.NewUserTokenRepo(gdb, log)
  env.profileRepo = repos.NewUserProfileRepo(gdb, log)
  env.sessionRepo = repos.NewSessionRepo(gdb, log)
  env.messageRepo = repos.NewMessageRepo(gdb, log)
  env.analyticsRepo = repos.NewAnalyticsRepo(gdb, log)
  env.reactionRepo = repos.NewReactionRepo(gdb, log)
  env.templateRepo = repos.NewTemplateRepo(gdb, log)

  env.sessions = NewSessionService(gdb, log, env.sessionRepo, env.messageRepo, env.analyticsRepo)
  env.messages = NewMessageService(gdb, log, env.sessionRepo, env.messageRepo, env.analyticsRepo, 10000)
  env.analytics = NewAnalyticsService(gdb, log, env.sessionRepo, env.analyticsRepo)
  env.reactions = NewReactionService(gdb, log, env.sessionRepo, env.messageRepo, env.reactionRepo)
  env.templates = NewTemplateService(gdb, log, env.templateRepo, env.sessionRepo, env.analyticsRepo)
  env.profiles = NewProfileService(gdb, log, env.profileRepo, env.sessionRepo, env.messageRepo)
  return env
}
