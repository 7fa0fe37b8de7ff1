package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
)

// testEnv собирает все сервисы поверх одного хранилища в памяти.
type testEnv struct {
	st       *memState
	notifier *recordingNotifier
	metrics  *countingMetrics
	now      time.Time

	ledger        *LedgerService
	notifications *NotificationService
	bids          *BidService
	connections   *ConnectionService
	conversations *ConversationService
	reviews       *ReviewService
	projects      *ProjectService
	auth          *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := newMemState()
	repos := st.repos()
	env := &testEnv{
		st:       st,
		notifier: &recordingNotifier{},
		metrics:  newCountingMetrics(),
		// часы сервисов немного впереди часов хранилища
		now: st.clock.Add(time.Hour),
	}

	env.ledger = NewLedgerService(st, repos.Wallets, env.metrics)
	env.notifications = NewNotificationService(repos.Notifications, env.notifier)
	env.bids = NewBidService(st, repos, env.ledger, env.notifications, env.metrics)
	env.connections = NewConnectionService(st, repos, env.ledger, env.metrics)
	env.conversations = NewConversationService(st, repos, env.notifications)
	env.reviews = NewReviewService(st, repos, env.notifications)
	env.projects = NewProjectService(st, repos, env.notifications, nil, time.Second)
	env.auth = NewAuthService(st, repos, env.ledger,
		NewTokenManager("test-access-secret", "test-refresh-secret", time.Minute, time.Hour))

	clock := func() time.Time { return env.now }
	env.bids.now = clock
	env.connections.now = clock
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

// newUser создаёт пользователя с кошельком и стартовым грантом.
func (e *testEnv) newUser(t *testing.T, roles ...string) uuid.UUID {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{models.RoleClient, models.RoleFreelancer}
	}
	user := &models.User{
		Name:  "Тестовый пользователь",
		Email: uuid.NewString() + "@example.com",
		Roles: roles,
	}
	require.NoError(t, fakeUsers{e.st}.Create(context.Background(), user))

	_, err := e.ledger.GetBalance(context.Background(), user.ID)
	require.NoError(t, err)
	return user.ID
}

func (e *testEnv) newProject(t *testing.T, clientID uuid.UUID) *models.Project {
	t.Helper()
	project, err := e.projects.CreateProject(context.Background(), clientID, CreateProjectInput{
		Title:       "Лендинг для кофейни",
		Description: "Нужен одностраничный сайт для кофейни с меню и картой",
		BudgetMin:   10000,
		BudgetMax:   20000,
	})
	require.NoError(t, err)
	return project
}

func (e *testEnv) placeBid(t *testing.T, projectID, freelancerID uuid.UUID) *CreateBidResult {
	t.Helper()
	res, err := e.bids.CreateBid(context.Background(), projectID, freelancerID, CreateBidInput{
		Proposal:  "Сделаю за неделю, есть похожие работы",
		BidAmount: 15000,
	})
	require.NoError(t, err)
	return res
}

// setBalance выставляет баланс напрямую, сохраняя журнал согласованным.
func (e *testEnv) setBalance(userID uuid.UUID, balance int64) {
	w := e.st.wallets[userID]
	delta := balance - w.Balance
	w.Balance = balance
	e.st.wallets[userID] = w
	e.st.transactions = append(e.st.transactions, models.TokenTransaction{
		ID: uuid.New(), UserID: userID, Amount: delta, BalanceAfter: balance,
		Type: models.TransactionTypePlatformFee, CreatedAt: e.st.tick(),
	})
}

// requireLedgerConsistent баланс равен сумме записей журнала.
func (e *testEnv) requireLedgerConsistent(t *testing.T, userIDs ...uuid.UUID) {
	t.Helper()
	for _, id := range userIDs {
		require.Equal(t, e.st.ledgerSum(id), e.st.balanceOf(id), "ledger mismatch for %s", id)
	}
}
