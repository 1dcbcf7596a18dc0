package authcore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeDirectory struct {
	mu      sync.Mutex
	users   map[string]UserRecord
	byEmail map[string]string

	createErr error
	updateErr error
	statusErr error

	getByEmailCalls     int
	getByIDCalls        int
	createCalls         int
	updatePasswordCalls int
	updateStatusCalls   int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:   make(map[string]UserRecord),
		byEmail: make(map[string]string),
	}
}

func (d *fakeDirectory) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.getByEmailCalls++

	userID, ok := d.byEmail[email]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return d.users[userID], nil
}

func (d *fakeDirectory) GetUserByID(_ context.Context, userID string) (UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.getByIDCalls++

	user, ok := d.users[userID]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return user, nil
}

func (d *fakeDirectory) CreateUser(_ context.Context, input CreateUserInput) (UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.createCalls++

	if d.createErr != nil {
		return UserRecord{}, d.createErr
	}
	if _, exists := d.byEmail[input.Email]; exists {
		return UserRecord{}, ErrDuplicateEmail
	}

	user := UserRecord{
		UserID:       fmt.Sprintf("u%d", len(d.users)+1),
		Email:        input.Email,
		Name:         input.Name,
		Image:        input.Image,
		PasswordHash: input.PasswordHash,
		Status:       input.Status,
	}
	d.users[user.UserID] = user
	d.byEmail[user.Email] = user.UserID
	return user, nil
}

func (d *fakeDirectory) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updatePasswordCalls++

	if d.updateErr != nil {
		return d.updateErr
	}
	user, ok := d.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = newHash
	d.users[userID] = user
	return nil
}

func (d *fakeDirectory) UpdateAccountStatus(_ context.Context, userID string, status AccountStatus) (UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateStatusCalls++

	if d.statusErr != nil {
		return UserRecord{}, d.statusErr
	}
	user, ok := d.users[userID]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	user.Status = status
	d.users[userID] = user
	return user, nil
}

func (d *fakeDirectory) record(userID string) UserRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.users[userID]
}

type fakeMailer struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *fakeMailer) sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *fakeMailer) last(t *testing.T) Message {
	t.Helper()
	msgs := m.sent()
	if len(msgs) == 0 {
		t.Fatal("no mail was sent")
	}
	return msgs[len(msgs)-1]
}

// testConfig returns a configuration with every flow enabled and Argon2
// parameters at their floor so hashing does not dominate test time.
func testConfig() Config {
	cfg := defaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.SaltLength = 16
	cfg.Password.KeyLength = 16
	cfg.PasswordReset.SigningKey = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func newTestProvider(t *testing.T, mutate func(*Config)) (*Provider, *fakeDirectory, *fakeMailer) {
	t.Helper()
	p, dir, mailer, _ := newTestProviderWithRedis(t, mutate)
	return p, dir, mailer
}

func newTestProviderWithRedis(t *testing.T, mutate func(*Config)) (*Provider, *fakeDirectory, *fakeMailer, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	dir := newFakeDirectory()
	mailer := &fakeMailer{}

	p, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUsers(dir).
		WithMailer(mailer).
		Build()
	if err != nil {
		t.Fatalf("build provider: %v", err)
	}
	t.Cleanup(p.Close)

	return p, dir, mailer, mr
}

// seedUser creates an account directly in the directory with the given
// password already hashed by the provider's hasher.
func seedUser(t *testing.T, p *Provider, dir *fakeDirectory, email, pass string, status AccountStatus) UserRecord {
	t.Helper()

	hash, err := p.passwordHash.Hash(pass)
	if err != nil {
		t.Fatalf("hash seed password: %v", err)
	}
	user, err := dir.CreateUser(context.Background(), CreateUserInput{
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Status:       status,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}
