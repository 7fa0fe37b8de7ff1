package service

import (
	"context"
	"math"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/tokenbid-backend/internal/domain/policy"
	"github.com/ignatzorin/tokenbid-backend/internal/logger"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/repository"
)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

// memData содержимое хранилища. Значения хранятся по значению, поэтому
// копия карт и срезов даёт независимый снимок для отката.
type memData struct {
	clock         time.Time
	users         map[uuid.UUID]models.User
	sessions      map[string]models.Session
	wallets       map[uuid.UUID]models.Wallet
	transactions  []models.TokenTransaction
	projects      map[uuid.UUID]models.Project
	saved         []models.SavedProject
	bids          map[uuid.UUID]models.Bid
	conversations map[uuid.UUID]models.Conversation
	messages      []models.Message
	connections   map[uuid.UUID]models.Connection
	reviews       []models.Review
	notifications []models.Notification
	failures      map[string]error
}

// memState транзакционное хранилище в памяти: транзакции выполняются
// по одной, при ошибке состояние откатывается к снимку.
type memState struct {
	txMu sync.Mutex
	memData
}

func newMemState() *memState {
	return &memState{memData: memData{
		clock:         time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		users:         map[uuid.UUID]models.User{},
		sessions:      map[string]models.Session{},
		wallets:       map[uuid.UUID]models.Wallet{},
		projects:      map[uuid.UUID]models.Project{},
		bids:          map[uuid.UUID]models.Bid{},
		conversations: map[uuid.UUID]models.Conversation{},
		connections:   map[uuid.UUID]models.Connection{},
		failures:      map[string]error{},
	}}
}

func (s *memState) WithTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.memData.clone()
	if err := fn(nil); err != nil {
		s.memData = snapshot
		return err
	}
	return nil
}

func (s *memState) DB() sqlx.ExtContext { return nil }

func (d memData) clone() memData {
	out := d
	out.users = cloneMap(d.users)
	out.sessions = cloneMap(d.sessions)
	out.wallets = cloneMap(d.wallets)
	out.transactions = append([]models.TokenTransaction(nil), d.transactions...)
	out.projects = cloneMap(d.projects)
	out.saved = append([]models.SavedProject(nil), d.saved...)
	out.bids = cloneMap(d.bids)
	out.conversations = cloneMap(d.conversations)
	out.messages = append([]models.Message(nil), d.messages...)
	out.connections = cloneMap(d.connections)
	out.reviews = append([]models.Review(nil), d.reviews...)
	out.notifications = append([]models.Notification(nil), d.notifications...)
	out.failures = cloneMap(d.failures)
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// tick возвращает строго возрастающее время для created_at.
func (s *memState) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

// failOn заставляет операцию op вернуть err.
func (s *memState) failOn(op string, err error) {
	s.failures[op] = err
}

func (s *memState) fail(op string) error {
	return s.failures[op]
}

func (s *memState) repos() Repositories {
	return Repositories{
		Users:         fakeUsers{s},
		Wallets:       fakeWallets{s},
		Projects:      fakeProjects{s},
		SavedProjects: fakeSavedProjects{s},
		Bids:          fakeBids{s},
		Conversations: fakeConversations{s},
		Messages:      fakeMessages{s},
		Connections:   fakeConnections{s},
		Reviews:       fakeReviews{s},
		Notifications: fakeNotifications{s},
	}
}

func (s *memState) balanceOf(userID uuid.UUID) int64 {
	return s.wallets[userID].Balance
}

func (s *memState) ledgerSum(userID uuid.UUID) int64 {
	var sum int64
	for _, t := range s.transactions {
		if t.UserID == userID {
			sum += t.Amount
		}
	}
	return sum
}

func (s *memState) transactionsOf(userID uuid.UUID, txType string) []models.TokenTransaction {
	var out []models.TokenTransaction
	for _, t := range s.transactions {
		if t.UserID == userID && (txType == "" || t.Type == txType) {
			out = append(out, t)
		}
	}
	return out
}

func (s *memState) notificationsOf(userID uuid.UUID, nType string) []models.Notification {
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID && (nType == "" || n.Type == nType) {
			out = append(out, n)
		}
	}
	return out
}

// ---- users ----

type fakeUsers struct{ *memState }

func (f fakeUsers) Create(ctx context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	user.IsActive = true
	user.CreatedAt = f.tick()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = *user
	return nil
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f fakeUsers) GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (f fakeUsers) LockForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	return nil
}

func (f fakeUsers) RecomputeRating(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (float64, error) {
	u, ok := f.users[id]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	var sum, n int
	for _, r := range f.reviews {
		if r.RevieweeID == id {
			sum += r.Rating
			n++
		}
	}
	u.Rating = 0
	if n > 0 {
		u.Rating = math.Round(float64(sum)/float64(n)*100) / 100
	}
	f.users[id] = u
	return u.Rating, nil
}

func (f fakeUsers) UpdateProfile(ctx context.Context, id uuid.UUID, name string, roles []string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Name = name
	u.Roles = append(pq.StringArray(nil), roles...)
	u.UpdatedAt = f.tick()
	f.users[id] = u
	return &u, nil
}

func (f fakeUsers) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	f.users[id] = u
	return nil
}

func (f fakeUsers) DeleteAllSessionsExcept(ctx context.Context, userID uuid.UUID, exceptRefreshToken string) (int64, error) {
	var n int64
	for token, s := range f.sessions {
		if s.UserID == userID && token != exceptRefreshToken {
			delete(f.sessions, token)
			n++
		}
	}
	return n, nil
}

// sessionsOf число сессий пользователя.
func (s *memState) sessionsOf(userID uuid.UUID) int {
	n := 0
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			n++
		}
	}
	return n
}

func (f fakeUsers) CreateSession(ctx context.Context, session *models.Session) error {
	session.ID = uuid.New()
	session.CreatedAt = f.tick()
	f.sessions[session.RefreshToken] = *session
	return nil
}

func (f fakeUsers) DeleteSession(ctx context.Context, refreshToken string) error {
	if _, ok := f.sessions[refreshToken]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(f.sessions, refreshToken)
	return nil
}

// ---- wallets ----

type fakeWallets struct{ *memState }

func (f fakeWallets) Ensure(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID, initial int64) (bool, error) {
	if _, ok := f.wallets[userID]; ok {
		return false, nil
	}
	now := f.tick()
	f.wallets[userID] = models.Wallet{
		ID: uuid.New(), UserID: userID, Balance: initial, TotalEarned: initial,
		CreatedAt: now, UpdatedAt: now,
	}
	return true, nil
}

func (f fakeWallets) Get(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID) (*models.Wallet, error) {
	w, ok := f.wallets[userID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	return &w, nil
}

func (f fakeWallets) ApplyDelta(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID, delta int64) (int64, error) {
	if err := f.fail("wallets.ApplyDelta"); err != nil {
		return 0, err
	}
	w, ok := f.wallets[userID]
	if !ok || w.Balance+delta < 0 {
		return 0, repository.ErrInsufficientBalance
	}
	w.Balance += delta
	if delta > 0 {
		w.TotalEarned += delta
	} else {
		w.TotalSpent -= delta
	}
	w.UpdatedAt = f.tick()
	f.wallets[userID] = w
	return w.Balance, nil
}

func (f fakeWallets) InsertTransaction(ctx context.Context, q sqlx.ExtContext, t *models.TokenTransaction) error {
	t.ID = uuid.New()
	t.CreatedAt = f.tick()
	f.transactions = append(f.transactions, *t)
	return nil
}

func (f fakeWallets) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TokenTransaction, error) {
	var out []models.TokenTransaction
	for i := len(f.transactions) - 1; i >= 0; i-- {
		if f.transactions[i].UserID == userID {
			out = append(out, f.transactions[i])
		}
	}
	return page(out, limit, offset), nil
}

// ---- projects ----

type fakeSavedProjects struct{ *memState }

func (f fakeSavedProjects) Save(ctx context.Context, userID, projectID uuid.UUID) (*models.SavedProject, error) {
	for _, s := range f.saved {
		if s.UserID == userID && s.ProjectID == projectID {
			return nil, repository.ErrDuplicate
		}
	}
	s := models.SavedProject{UserID: userID, ProjectID: projectID, CreatedAt: f.tick()}
	f.saved = append(f.saved, s)
	return &s, nil
}

func (f fakeSavedProjects) Remove(ctx context.Context, userID, projectID uuid.UUID) error {
	for i, s := range f.saved {
		if s.UserID == userID && s.ProjectID == projectID {
			f.saved = append(f.saved[:i], f.saved[i+1:]...)
			return nil
		}
	}
	return repository.ErrSavedProjectNotFound
}

func (f fakeSavedProjects) ListProjects(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	var out []models.Project
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].UserID == userID {
			out = append(out, f.projects[f.saved[i].ProjectID])
		}
	}
	return page(out, limit, offset), nil
}

type fakeProjects struct{ *memState }

func (f fakeProjects) Create(ctx context.Context, p *models.Project) error {
	p.ID = uuid.New()
	p.CreatedAt = f.tick()
	p.UpdatedAt = p.CreatedAt
	f.projects[p.ID] = *p
	return nil
}

func (f fakeProjects) GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	return &p, nil
}

func (f fakeProjects) GetForShare(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Project, error) {
	return f.GetByID(ctx, q, id)
}

func (f fakeProjects) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Project, error) {
	return f.GetByID(ctx, q, id)
}

func (f fakeProjects) UpdateStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status string) error {
	p, ok := f.projects[id]
	if !ok {
		return repository.ErrProjectNotFound
	}
	p.Status = status
	p.UpdatedAt = f.tick()
	f.projects[id] = p
	return nil
}

func (f fakeProjects) SetAcceptedBid(ctx context.Context, q sqlx.ExtContext, id, bidID uuid.UUID) error {
	p, ok := f.projects[id]
	if !ok {
		return repository.ErrProjectNotFound
	}
	p.AcceptedBidID = &bidID
	p.Status = models.ProjectStatusInProgress
	p.UpdatedAt = f.tick()
	f.projects[id] = p
	return nil
}

func (f fakeProjects) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Project, error) {
	var out []models.Project
	for _, p := range f.projects {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

// ---- bids ----

type fakeBids struct{ *memState }

func (f fakeBids) Create(ctx context.Context, q sqlx.ExtContext, bid *models.Bid) error {
	for _, b := range f.bids {
		if b.ProjectID == bid.ProjectID && b.FreelancerID == bid.FreelancerID {
			return repository.ErrDuplicate
		}
	}
	bid.ID = uuid.New()
	bid.Status = models.BidStatusPending
	bid.CreatedAt = f.tick()
	bid.UpdatedAt = bid.CreatedAt
	f.bids[bid.ID] = *bid
	return nil
}

func (f fakeBids) GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Bid, error) {
	b, ok := f.bids[id]
	if !ok {
		return nil, repository.ErrBidNotFound
	}
	return &b, nil
}

func (f fakeBids) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Bid, error) {
	return f.GetByID(ctx, q, id)
}

func (f fakeBids) ExistsForFreelancer(ctx context.Context, q sqlx.QueryerContext, projectID, freelancerID uuid.UUID) (bool, error) {
	for _, b := range f.bids {
		if b.ProjectID == projectID && b.FreelancerID == freelancerID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeBids) UpdateStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status string) error {
	b, ok := f.bids[id]
	if !ok {
		return repository.ErrBidNotFound
	}
	b.Status = status
	b.UpdatedAt = f.tick()
	f.bids[id] = b
	return nil
}

func (f fakeBids) RejectPendingExcept(ctx context.Context, q sqlx.ExtContext, projectID, keepID uuid.UUID) ([]models.Bid, error) {
	var out []models.Bid
	for id, b := range f.bids {
		if b.ProjectID == projectID && b.ID != keepID && b.Status == models.BidStatusPending {
			b.Status = models.BidStatusRejected
			b.UpdatedAt = f.tick()
			f.bids[id] = b
			out = append(out, b)
		}
	}
	return out, nil
}

func (f fakeBids) Delete(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error {
	if _, ok := f.bids[id]; !ok {
		return repository.ErrBidNotFound
	}
	delete(f.bids, id)
	return nil
}

func (f fakeBids) ListUnlockedForProject(ctx context.Context, q sqlx.QueryerContext, projectID uuid.UUID) ([]models.Bid, error) {
	var out []models.Bid
	for _, c := range f.conversations {
		if c.Type != models.ConversationTypeProjectProposal || !c.IsUnlocked || c.BidID == nil {
			continue
		}
		if b, ok := f.bids[*c.BidID]; ok && b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f fakeBids) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Bid, error) {
	var out []models.Bid
	for _, b := range f.bids {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f fakeBids) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	var out []models.Bid
	for _, b := range f.bids {
		if b.FreelancerID == freelancerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

// ---- conversations ----

type fakeConversations struct{ *memState }

func (f fakeConversations) Create(ctx context.Context, q sqlx.ExtContext, c *models.Conversation) error {
	c.ID = uuid.New()
	c.CreatedAt = f.tick()
	c.UpdatedAt = c.CreatedAt
	f.conversations[c.ID] = *c
	return nil
}

func (f fakeConversations) GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok {
		return nil, repository.ErrConversationNotFound
	}
	return &c, nil
}

func (f fakeConversations) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Conversation, error) {
	return f.GetByID(ctx, q, id)
}

func (f fakeConversations) MarkRecipientUnlocked(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, at time.Time) error {
	c, ok := f.conversations[id]
	if !ok {
		return repository.ErrConversationNotFound
	}
	c.RecipientPaid = true
	c.IsUnlocked = true
	c.RecipientUnlockedAt = &at
	c.UpdatedAt = f.tick()
	f.conversations[id] = c
	return nil
}

func (f fakeConversations) Touch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error {
	c, ok := f.conversations[id]
	if !ok {
		return repository.ErrConversationNotFound
	}
	c.UpdatedAt = f.tick()
	f.conversations[id] = c
	return nil
}

func (f fakeConversations) IDsByBid(ctx context.Context, q sqlx.QueryerContext, bidID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, c := range f.conversations {
		if c.BidID != nil && *c.BidID == bidID {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (f fakeConversations) DeleteByIDs(ctx context.Context, q sqlx.ExtContext, ids []uuid.UUID) (int64, error) {
	if err := f.fail("conversations.DeleteByIDs"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if _, ok := f.conversations[id]; ok {
			delete(f.conversations, id)
			n++
		}
	}
	return n, nil
}

func (f fakeConversations) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range f.conversations {
		if c.IsParticipant(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return page(out, limit, offset), nil
}

// ---- messages ----

type fakeMessages struct{ *memState }

func (f fakeMessages) Create(ctx context.Context, q sqlx.ExtContext, m *models.Message) error {
	if err := f.fail("messages.Create"); err != nil {
		return err
	}
	m.ID = uuid.New()
	m.IsRead = false
	m.CreatedAt = f.tick()
	f.messages = append(f.messages, *m)
	return nil
}

func (f fakeMessages) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return page(out, limit, offset), nil
}

func (f fakeMessages) DeleteByConversations(ctx context.Context, q sqlx.ExtContext, conversationIDs []uuid.UUID) (int64, error) {
	drop := idSet(conversationIDs)
	kept := f.messages[:0:0]
	var n int64
	for _, m := range f.messages {
		if _, ok := drop[m.ConversationID]; ok {
			n++
			continue
		}
		kept = append(kept, m)
	}
	f.messages = kept
	return n, nil
}

func (f fakeMessages) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	var n int64
	for i := range f.messages {
		m := &f.messages[i]
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f fakeMessages) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, m := range f.messages {
		c, ok := f.conversations[m.ConversationID]
		if ok && c.IsParticipant(userID) && m.SenderID != userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

// ---- connections ----

type fakeConnections struct{ *memState }

// Insert повторяет условную вставку: существующая пара перезаписывается,
// только если прежняя связь снята.
func (f fakeConnections) Insert(ctx context.Context, q sqlx.ExtContext, c *models.Connection, now time.Time) error {
	for id, existing := range f.connections {
		if existing.InitiatorID != c.InitiatorID || existing.RecipientID != c.RecipientID ||
			existing.ConnectionType != c.ConnectionType {
			continue
		}
		if !policy.IsTornDown(&existing, f.conversationExists(existing.ConversationID), f.bidPending(existing.ConversationID), now) {
			if existing.Status == models.ConnectionStatusConnected {
				return repository.ErrConnectionEstablished
			}
			return repository.ErrConnectionActive
		}
		c.ID = id
		c.CreatedAt = existing.CreatedAt
		c.UpdatedAt = f.tick()
		f.connections[id] = *c
		return nil
	}

	c.ID = uuid.New()
	c.CreatedAt = f.tick()
	c.UpdatedAt = c.CreatedAt
	f.connections[c.ID] = *c
	return nil
}

func (f fakeConnections) conversationExists(conversationID *uuid.UUID) bool {
	if conversationID == nil {
		return false
	}
	_, ok := f.conversations[*conversationID]
	return ok
}

func (f fakeConnections) bidPending(conversationID *uuid.UUID) bool {
	if conversationID == nil {
		return false
	}
	conv, ok := f.conversations[*conversationID]
	if !ok || conv.BidID == nil {
		return false
	}
	bid, ok := f.bids[*conv.BidID]
	return ok && bid.Status == models.BidStatusPending
}

func (f fakeConnections) GetByConversation(ctx context.Context, q sqlx.QueryerContext, conversationID uuid.UUID) (*models.Connection, error) {
	for _, c := range f.connections {
		if c.ConversationID != nil && *c.ConversationID == conversationID {
			return &c, nil
		}
	}
	return nil, repository.ErrConnectionNotFound
}

func (f fakeConnections) MarkRecipientUnlocked(ctx context.Context, q sqlx.ExtContext, conversationID uuid.UUID, at time.Time) error {
	for id, c := range f.connections {
		if c.ConversationID != nil && *c.ConversationID == conversationID {
			c.RecipientUnlockedAt = &at
			c.Status = models.ConnectionStatusConnected
			c.ExpiresAt = nil
			c.UpdatedAt = f.tick()
			f.connections[id] = c
			return nil
		}
	}
	return repository.ErrConnectionNotFound
}

func (f fakeConnections) ExistsDirectBetween(ctx context.Context, q sqlx.QueryerContext, a, b uuid.UUID) (bool, error) {
	for _, c := range f.connections {
		if c.ConnectionType == models.ConversationTypeDirect && pairMatches(c, a, b) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeConnections) ListBetween(ctx context.Context, a, b uuid.UUID) ([]models.Connection, error) {
	var out []models.Connection
	for _, c := range f.connections {
		if pairMatches(c, a, b) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f fakeConnections) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	var out []models.Connection
	for _, c := range f.connections {
		if c.InitiatorID == userID || c.RecipientID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f fakeConnections) DeleteByConversations(ctx context.Context, q sqlx.ExtContext, conversationIDs []uuid.UUID) (int64, error) {
	drop := idSet(conversationIDs)
	var n int64
	for id, c := range f.connections {
		if c.ConversationID == nil {
			continue
		}
		if _, ok := drop[*c.ConversationID]; ok {
			delete(f.connections, id)
			n++
		}
	}
	return n, nil
}

func pairMatches(c models.Connection, a, b uuid.UUID) bool {
	return (c.InitiatorID == a && c.RecipientID == b) || (c.InitiatorID == b && c.RecipientID == a)
}

// ---- reviews ----

type fakeReviews struct{ *memState }

func (f fakeReviews) Exists(ctx context.Context, q sqlx.QueryerContext, reviewerID, revieweeID, projectID uuid.UUID) (bool, error) {
	for _, r := range f.reviews {
		if r.ReviewerID == reviewerID && r.RevieweeID == revieweeID && r.ProjectID == projectID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeReviews) Create(ctx context.Context, q sqlx.ExtContext, review *models.Review) error {
	exists, _ := f.Exists(ctx, q, review.ReviewerID, review.RevieweeID, review.ProjectID)
	if exists {
		return repository.ErrDuplicate
	}
	review.ID = uuid.New()
	review.CreatedAt = f.tick()
	f.reviews = append(f.reviews, *review)
	return nil
}

func (f fakeReviews) ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var out []models.Review
	for i := len(f.reviews) - 1; i >= 0; i-- {
		if f.reviews[i].RevieweeID == revieweeID {
			out = append(out, f.reviews[i])
		}
	}
	return page(out, limit, offset), nil
}

// ---- notifications ----

type fakeNotifications struct{ *memState }

func (f fakeNotifications) CreateBatch(ctx context.Context, q sqlx.ExtContext, notifications []*models.Notification) error {
	for _, n := range notifications {
		n.ID = uuid.New()
		n.CreatedAt = f.tick()
		f.notifications = append(f.notifications, *n)
	}
	return nil
}

func (f fakeNotifications) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(f.notifications) - 1; i >= 0; i-- {
		n := f.notifications[i]
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return page(out, limit, offset), nil
}

func (f fakeNotifications) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	for i := range f.notifications {
		if f.notifications[i].ID == id && f.notifications[i].UserID == userID {
			f.notifications[i].IsRead = true
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

func (f fakeNotifications) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	for i := range f.notifications {
		if f.notifications[i].UserID == userID {
			f.notifications[i].IsRead = true
		}
	}
	return nil
}

func (f fakeNotifications) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, item := range f.notifications {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

// ---- helpers ----

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// recordingNotifier запоминает отправленные события.
type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	UserID uuid.UUID
	Event  string
	Data   any
}

func (n *recordingNotifier) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{UserID: userID, Event: event, Data: data})
	return nil
}

// pushed сколько уведомлений типа nType доставлено пользователю.
func (n *recordingNotifier) pushed(userID uuid.UUID, nType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if note, ok := e.Data.(*models.Notification); ok && e.UserID == userID && note.Type == nType {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) count(userID uuid.UUID, event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.UserID == userID && e.Event == event {
			c++
		}
	}
	return c
}

// countingMetrics считает вызовы доменных метрик.
type countingMetrics struct {
	mu         sync.Mutex
	bids       int
	unlocks    int
	directs    int
	tokenMoves map[string]int64
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{tokenMoves: map[string]int64{}}
}

func (m *countingMetrics) BidCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bids++
}

func (m *countingMetrics) ProposalUnlocked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlocks++
}

func (m *countingMetrics) DirectConnectionCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.directs++
}

func (m *countingMetrics) TokensMoved(transactionType string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenMoves[transactionType] += amount
}
