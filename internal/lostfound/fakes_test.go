package lostfound

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/lostfound/registry/internal/imaging"
	"github.com/lostfound/registry/internal/model"
	"github.com/lostfound/registry/internal/store"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[int64]*model.User
	nextID int64

	// raceOnCreate makes GetByUsername miss and Create report a duplicate.
	raceOnCreate bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]*model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, username, passwordHash string, isStaff bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceOnCreate {
		return nil, store.ErrUsernameTaken
	}
	for _, u := range f.byID {
		if u.Username == username {
			return nil, store.ErrUsernameTaken
		}
	}
	f.nextID++
	u := &model.User{ID: f.nextID, Username: username, PasswordHash: passwordHash, IsStaff: isStaff, CreatedAt: time.Now()}
	f.byID[u.ID] = u
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceOnCreate {
		return nil, nil
	}
	for _, u := range f.byID {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) setStaff(username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == username {
			u.IsStaff = true
		}
	}
}

func (f *fakeUsers) get(id int64) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil
	}
	copied := *u
	return &copied
}

type fakeTokens struct {
	mu     sync.Mutex
	byUser map[int64]string
	users  *fakeUsers
	seq    int
}

func newFakeTokens(users *fakeUsers) *fakeTokens {
	return &fakeTokens{byUser: map[int64]string{}, users: users}
}

func (f *fakeTokens) GetOrCreate(_ context.Context, userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key, ok := f.byUser[userID]; ok {
		return key, nil
	}
	f.seq++
	key := fmt.Sprintf("%040x", f.seq)
	f.byUser[userID] = key
	return key, nil
}

func (f *fakeTokens) Lookup(_ context.Context, key string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for userID, k := range f.byUser {
		if k == key {
			return f.users.get(userID), nil
		}
	}
	return nil, nil
}

type fakeItems struct {
	mu        sync.Mutex
	items     []*model.Item
	nextID    int64
	createErr error
}

func (f *fakeItems) Create(_ context.Context, item *model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.items {
		if existing.UUID == item.UUID {
			return errors.New("duplicate uuid")
		}
	}
	f.nextID++
	item.ID = f.nextID
	copied := *item
	f.items = append(f.items, &copied)
	return nil
}

func (f *fakeItems) Get(_ context.Context, id int64) (*model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == id {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeItems) List(_ context.Context, limit, offset int) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sorted := make([]model.Item, 0, len(f.items))
	for _, item := range f.items {
		sorted = append(sorted, *item)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if offset >= len(sorted) {
		return nil, nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end], nil
}

func (f *fakeItems) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items), nil
}

func (f *fakeItems) SetClaimed(_ context.Context, id int64, claimed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == id {
			item.Claimed = claimed
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{data: map[string][]byte{}}
}

func (f *fakeBlobs) Put(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeBlobs) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

// passthroughImage accepts any non-empty upload without decoding it.
func passthroughImage(r io.Reader) (*imaging.ProcessResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, imaging.ErrInvalidImage
	}
	return &imaging.ProcessResult{Data: data, Width: 1, Height: 1}, nil
}

// stepClock returns a clock that advances by one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func photo() io.Reader {
	return bytes.NewReader([]byte("photo-bytes"))
}
