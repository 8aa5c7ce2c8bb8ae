package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/you/gymdesk/domain"
)

// MockUserRepository implements domain.UserRepository interface for testing.
// Without overrides it behaves like an in-memory table.
type MockUserRepository struct {
	CreateFunc      func(ctx context.Context, user *domain.User) error
	FindByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	FindByPhoneFunc func(ctx context.Context, phone string) (*domain.User, error)
	FindByIDFunc    func(ctx context.Context, id uint) (*domain.User, error)
	UpdateFunc      func(ctx context.Context, user *domain.User) error

	mu     sync.Mutex
	users  map[uint]*domain.User
	nextID uint
}

// NewMockUserRepository creates a new MockUserRepository with default behaviors
func NewMockUserRepository(seed ...*domain.User) *MockUserRepository {
	m := &MockUserRepository{users: make(map[uint]*domain.User)}
	for _, u := range seed {
		m.put(u)
	}
	return m
}

func (m *MockUserRepository) put(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		m.nextID++
		u.ID = m.nextID
	} else if u.ID > m.nextID {
		m.nextID = u.ID
	}
	if u.Role == "" {
		u.Role = domain.RoleMember
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = time.Now()
	c := *u
	m.users[u.ID] = &c
}

func (m *MockUserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.put(user)
	return nil
}

// FindByEmail finds a user by email
func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return m.find(func(u *domain.User) bool { return u.Email != "" && u.Email == email })
}

// FindByPhone finds a user by phone number
func (m *MockUserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	return m.find(func(u *domain.User) bool { return u.Phone != "" && u.Phone == phone })
}

// FindByID finds a user by ID
func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

// FindMissing returns the ids with no stored user
func (m *MockUserRepository) FindMissing(ctx context.Context, ids []uint) ([]uint, error) {
	var missing []uint
	for _, id := range ids {
		if _, err := m.FindByID(ctx, id); err != nil {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// List returns every stored user ordered by id
func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.User, 0, len(m.users))
	for id := uint(1); id <= m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

// Update updates an existing user
func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	if _, err := m.FindByID(ctx, user.ID); err != nil {
		return err
	}
	m.put(user)
	return nil
}

// Compile-time interface compliance verification
var _ domain.UserRepository = (*MockUserRepository)(nil)
