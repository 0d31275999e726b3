package posts

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/alok/blog/internal/models"
	"github.com/alok/blog/internal/store"
)

// fakeStore keeps users and posts in memory and orders listings the way
// PostgresStore does.
type fakeStore struct {
	mu     sync.Mutex
	users  []*models.User
	posts  []*models.Post
	nextID int64
	clock  time.Time
	tick   time.Duration

	// beforeUpdate runs ahead of UpdatePost, outside the lock.
	beforeUpdate func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), tick: time.Minute}
}

func (f *fakeStore) addUser(username string) *models.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: int64(len(f.users) + 1), Username: username, ImageFile: models.DefaultImageFile}
	f.users = append(f.users, u)
	return u.Identity()
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) author(id int64) *models.User {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (f *fakeStore) CreatePost(_ context.Context, authorID int64, title, content string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.author(authorID)
	if u == nil {
		return nil, errors.New("foreign key violation")
	}
	f.nextID++
	f.clock = f.clock.Add(f.tick)
	p := &models.Post{
		ID:         f.nextID,
		Title:      title,
		Content:    content,
		DatePosted: f.clock,
		AuthorID:   authorID,
		Author:     u.Username,
		AuthorImg:  u.ImageFile,
		Version:    1,
	}
	f.posts = append(f.posts, p)
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetPost(_ context.Context, id int64) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) UpdatePost(_ context.Context, id int64, version int, title, content string) (*models.Post, error) {
	if f.beforeUpdate != nil {
		f.beforeUpdate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID != id {
			continue
		}
		if p.Version != version {
			return nil, store.ErrStale
		}
		p.Title, p.Content = title, content
		p.Version++
		cp := *p
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) DeletePost(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.posts {
		if p.ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ListPosts(_ context.Context, authorID int64, limit, offset int) ([]models.Post, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Post
	for _, p := range f.posts {
		if authorID == 0 || p.AuthorID == authorID {
			matched = append(matched, *p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].DatePosted.Equal(matched[j].DatePosted) {
			return matched[i].DatePosted.After(matched[j].DatePosted)
		}
		return matched[i].ID < matched[j].ID
	})
	total := len(matched)
	if offset >= total {
		return []models.Post{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []models.Activity
	err     error
}

func (f *fakeActivity) Record(_ context.Context, a *models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *a)
	return nil
}

func (f *fakeActivity) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}
