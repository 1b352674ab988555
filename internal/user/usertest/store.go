// Package usertest provides an in-memory user.Store for tests.
package usertest

import (
	"context"
	"sync"

	"blog-service/internal/user"
)

// Store is a concurrency-safe in-memory user.Store. Setting Err makes every
// call fail with it, simulating an unavailable database.
type Store struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]*user.User
	federated map[string]int64

	Err error

	// CreatedFederated counts successful CreateFederated inserts.
	CreatedFederated int
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]*user.User),
		federated: make(map[string]int64),
	}
}

func fedKey(provider, subject string) string {
	return provider + "\x00" + subject
}

func clone(u *user.User) *user.User {
	c := *u
	return &c
}

// Add inserts a user directly and returns it with its assigned ID.
func (s *Store) Add(u user.User) *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u.ID = s.nextID
	u.Email = user.NormalizeEmail(u.Email)
	s.users[u.ID] = &u
	return clone(&u)
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *Store) FindByID(_ context.Context, id int64) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return clone(u), nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if u := s.byEmail(user.NormalizeEmail(email)); u != nil {
		return clone(u), nil
	}
	return nil, user.ErrNotFound
}

func (s *Store) byEmail(email string) *user.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *Store) FindByFederatedID(_ context.Context, provider, subject string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	id, ok := s.federated[fedKey(provider, subject)]
	if !ok {
		return nil, nil
	}
	return clone(s.users[id]), nil
}

func (s *Store) Create(_ context.Context, nu user.NewUser) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	email := user.NormalizeEmail(nu.Email)
	if s.byEmail(email) != nil {
		return nil, user.ErrEmailTaken
	}
	s.nextID++
	u := &user.User{ID: s.nextID, Email: email, FirstName: nu.FirstName, LastName: nu.LastName, PasswordHash: nu.PasswordHash}
	s.users[u.ID] = u
	return clone(u), nil
}

func (s *Store) CreateFederated(_ context.Context, p user.FederatedProfile) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if id, ok := s.federated[fedKey(p.Provider, p.Subject)]; ok {
		return clone(s.users[id]), nil
	}
	email := user.NormalizeEmail(p.Email)
	if s.byEmail(email) != nil {
		return nil, user.ErrEmailTaken
	}
	s.nextID++
	u := &user.User{ID: s.nextID, Email: email, FirstName: p.FirstName, LastName: p.LastName}
	s.users[u.ID] = u
	s.federated[fedKey(p.Provider, p.Subject)] = u.ID
	s.CreatedFederated++
	return clone(u), nil
}

func (s *Store) LinkFederatedID(_ context.Context, userID int64, provider, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[userID]; !ok {
		return user.ErrNotFound
	}
	key := fedKey(provider, subject)
	if _, ok := s.federated[key]; !ok {
		s.federated[key] = userID
	}
	return nil
}

var _ user.Store = (*Store)(nil)
