package services

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"todo/internal/auth"
	"todo/internal/interfaces"
	"todo/internal/models"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	fails error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}}
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails != nil {
		return m.fails
	}
	for _, existing := range m.byID {
		if existing.Email == strings.ToLower(u.Email) {
			return interfaces.ErrEmailTaken
		}
	}
	cp := *u
	cp.Email = strings.ToLower(u.Email)
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, interfaces.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, interfaces.ErrUserNotFound
}

func (m *memUsers) List(_ context.Context, limit int, offset int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.User
	for _, u := range m.byID {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *memUsers) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, req *models.UpdateProfileRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return interfaces.ErrUserNotFound
	}
	if req.Email != nil {
		for otherID, other := range m.byID {
			if otherID != id && other.Email == *req.Email {
				return interfaces.ErrEmailTaken
			}
		}
		u.Email = *req.Email
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	return nil
}

func (m *memUsers) update(id string, fn func(u *models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return interfaces.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id string, hash string) error {
	return m.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (m *memUsers) UpdateImageURL(_ context.Context, id string, url string) error {
	return m.update(id, func(u *models.User) { u.ImageURL = url })
}

func (m *memUsers) MarkEmailVerified(_ context.Context, id string) error {
	return m.update(id, func(u *models.User) { u.IsEmailVerified = true })
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return interfaces.ErrUserNotFound
	}
	delete(m.byID, id)
	return nil
}

type memResetTokens struct {
	mu     sync.Mutex
	byHash map[string]*models.ResetToken
}

func newMemResetTokens() *memResetTokens {
	return &memResetTokens{byHash: map[string]*models.ResetToken{}}
}

func (m *memResetTokens) Create(_ context.Context, t *models.ResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.byHash[t.TokenHash] = &cp
	return nil
}

func (m *memResetTokens) ConsumeValid(_ context.Context, hash string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[hash]
	if !ok || t.IsExpired || !t.ExpiresAt.After(now) {
		return "", interfaces.ErrResetTokenNotFound
	}
	delete(m.byHash, hash)
	return t.UserID, nil
}

func (m *memResetTokens) DeleteByUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, t := range m.byHash {
		if t.UserID == userID {
			delete(m.byHash, h)
			n++
		}
	}
	return n, nil
}

func (m *memResetTokens) MarkExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.byHash {
		if !t.IsExpired && !t.ExpiresAt.After(now) {
			t.IsExpired = true
			n++
		}
	}
	return n, nil
}

func (m *memResetTokens) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, t := range m.byHash {
		if !t.ExpiresAt.After(cutoff) {
			delete(m.byHash, h)
			n++
		}
	}
	return n, nil
}

func (m *memResetTokens) forUser(userID string) []*models.ResetToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ResetToken
	for _, t := range m.byHash {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

type memTodos struct {
	mu   sync.Mutex
	byID map[string]*models.Todo
}

func newMemTodos() *memTodos {
	return &memTodos{byID: map[string]*models.Todo{}}
}

func (m *memTodos) Create(_ context.Context, t *models.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Title == t.Title {
			return interfaces.ErrTitleTaken
		}
	}
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTodos) GetByID(_ context.Context, id string) (*models.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, interfaces.ErrTodoNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTodos) GetByTitle(_ context.Context, title string) (*models.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.Title == title {
			cp := *t
			return &cp, nil
		}
	}
	return nil, interfaces.ErrTodoNotFound
}

func (m *memTodos) filtered(f interfaces.TodoFilter) []*models.Todo {
	var out []*models.Todo
	for _, t := range m.byID {
		if f.UserID != "" && t.User.ID != f.UserID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (m *memTodos) List(_ context.Context, f interfaces.TodoFilter) ([]*models.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.filtered(f)
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memTodos) Count(_ context.Context, f interfaces.TodoFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filtered(f)), nil
}

func (m *memTodos) Update(_ context.Context, t *models.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[t.ID]; !ok {
		return interfaces.ErrTodoNotFound
	}
	for id, existing := range m.byID {
		if id != t.ID && existing.Title == t.Title {
			return interfaces.ErrTitleTaken
		}
	}
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTodos) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return interfaces.ErrTodoNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memTodos) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.byID {
		if (t.Status == models.TodoStatusPending || t.Status == models.TodoStatusOnTrack) && !t.Deadline.After(now) {
			t.Status = models.TodoStatusOffTrack
			n++
		}
	}
	return n, nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(to string, subject string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (f *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatalf("no email sent")
	}
	return f.sent[len(f.sent)-1]
}

type fakeImages struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (f *fakeImages) Upload(_ context.Context, key string, contentType string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.key, f.contentType, f.body = key, contentType, b
	return "https://cdn.example.com/" + key, nil
}

func testHasher(t *testing.T) *auth.BcryptHasher {
	t.Helper()
	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}
	return h
}

// tokenFromLink pulls the raw token out of an emailed link.
func tokenFromLink(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, "?token=")
	if i < 0 {
		t.Fatalf("no token link in %q", body)
	}
	return strings.Fields(body[i+len("?token="):])[0]
}
