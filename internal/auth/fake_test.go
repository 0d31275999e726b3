package auth

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/alok/blog/internal/models"
	"github.com/alok/blog/internal/store"
)

type fakeUsers struct {
	mu    sync.Mutex
	users []*models.User
}

func (f *fakeUsers) CreateUser(_ context.Context, username, email, hashed string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return nil, store.ErrUsernameTaken
		}
		if u.Email == email {
			return nil, store.ErrEmailTaken
		}
	}
	u := &models.User{
		ID:           int64(len(f.users) + 1),
		Username:     username,
		Email:        email,
		Password:     hashed,
		ImageFile:    models.DefaultImageFile,
		RegisterDate: time.Now(),
	}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsers) SetImageFile(_ context.Context, id int64, image string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			prev := u.ImageFile
			u.ImageFile = image
			return prev, nil
		}
	}
	return "", store.ErrNotFound
}

type fakeFiles struct {
	objects map[string][]byte
	types   map[string]string
	removed []string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeFiles) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeFiles) Open(_ context.Context, key string) (io.ReadCloser, string, int64, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, "", 0, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), f.types[key], int64(len(data)), nil
}

func (f *fakeFiles) Remove(_ context.Context, key string) error {
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

type fakeActivity struct {
	entries []models.Activity
}

func (f *fakeActivity) ListByUser(_ context.Context, userID int64, limit int) ([]models.Activity, error) {
	var out []models.Activity
	for _, a := range f.entries {
		if a.UserID == userID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}
