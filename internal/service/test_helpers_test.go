package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gurkanbulca/taskpulse/internal/database"
	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
	"github.com/gurkanbulca/taskpulse/pkg/auth"
	"github.com/gurkanbulca/taskpulse/pkg/email"
)

const testPassword = "Passw0rd!"

var testEpoch = time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC) // a Wednesday

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// testEnv wires every service over one in-memory database.
type testEnv struct {
	t        *testing.T
	store    *repository.Store
	clock    *fakeClock
	mail     *email.MockEmailService
	tokens   *auth.TokenManager
	security *SecurityService
	auth     *AuthService
	users    *UserService
	orgs     *OrganizationService
	tasks    *TaskService
	comments *CommentService
	timeLogs *TimeLogService
	reports  *ReportService
}

type envOption func(*envOptions)

type envOptions struct {
	deletePolicy DeletePolicy
	adminPolicy  AdminPolicy
}

func withDeletePolicy(p DeletePolicy) envOption {
	return func(o *envOptions) { o.deletePolicy = p }
}

func withAdminPolicy(p AdminPolicy) envOption {
	return func(o *envOptions) { o.adminPolicy = p }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	o := envOptions{deletePolicy: DeleteByAuthorOrAssignee, adminPolicy: AnyAdmin}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := database.Open(database.Config{
		Driver:       "sqlite3",
		DSN:          "file:svc_" + uuid.NewString() + "?mode=memory&cache=shared&_fk=1",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	store := repository.NewStore(db)
	clock := &fakeClock{now: testEpoch}
	mail := email.NewMockEmailService()
	limits := DefaultValidationConfig()

	tokens := auth.NewTokenManager("test-secret-key-that-is-long-enough!!", 24*time.Hour, "taskpulse-test").
		WithClock(clock.Now)
	passwords := auth.NewPasswordManagerWithCost(bcrypt.MinCost, 8)
	security := NewSecurityService(store, clock)
	logger := NewSecurityLogger(security)

	return &testEnv{
		t:        t,
		store:    store,
		clock:    clock,
		mail:     mail,
		tokens:   tokens,
		security: security,
		auth:     NewAuthService(store, tokens, passwords, logger, mail, clock),
		users:    NewUserService(store, passwords, logger, clock, o.adminPolicy, limits),
		orgs:     NewOrganizationService(store, clock, limits),
		tasks:    NewTaskService(store, mail, clock, o.deletePolicy, limits),
		comments: NewCommentService(store, clock, limits),
		timeLogs: NewTimeLogService(store, clock, limits),
		reports:  NewReportService(store, clock),
	}
}

// user provisions an active account and returns its actor. The clock moves
// one second afterwards so creation order is unambiguous.
func (e *testEnv) user(emailAddr string, role models.Role) *Actor {
	e.t.Helper()
	u, err := e.users.CreateUser(context.Background(), CreateUserInput{
		Email:     emailAddr,
		Password:  testPassword,
		FirstName: "Test",
		LastName:  emailAddr,
		Role:      string(role),
	})
	require.NoError(e.t, err)
	e.clock.Advance(time.Second)
	return newActor(u)
}

func (e *testEnv) task(actor *Actor, title string, assignee *Actor) *models.Task {
	e.t.Helper()
	in := CreateTaskInput{Title: title}
	if assignee != nil {
		id := assignee.ID()
		in.AssigneeID = &id
	}
	task, err := e.tasks.CreateTask(context.Background(), actor, in)
	require.NoError(e.t, err)
	return task
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}

func ptr[T any](v T) *T { return &v }
