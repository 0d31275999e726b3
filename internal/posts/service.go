package posts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/alok/blog/internal/models"
	"github.com/alok/blog/internal/store"
	"github.com/alok/blog/internal/web"
)

var (
	ErrNotFound        = errors.New("post not found")
	ErrForbidden       = errors.New("post belongs to another user")
	ErrConflict        = errors.New("post was modified concurrently")
	ErrUnauthenticated = errors.New("login required")
)

// PostStore defines the interface for post persistence.
type PostStore interface {
	CreatePost(ctx context.Context, authorID int64, title, content string) (*models.Post, error)
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	UpdatePost(ctx context.Context, id int64, version int, title, content string) (*models.Post, error)
	DeletePost(ctx context.Context, id int64) error
	ListPosts(ctx context.Context, authorID int64, limit, offset int) ([]models.Post, int, error)
}

// UserStore resolves the author of a per-user listing.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// ActivityLog records post mutations.
type ActivityLog interface {
	Record(ctx context.Context, a *models.Activity) error
}

// Service enforces ownership on post mutations and pages listings.
type Service struct {
	posts    PostStore
	users    UserStore
	activity ActivityLog
	perPage  int
}

func NewService(posts PostStore, users UserStore, activity ActivityLog, perPage int) *Service {
	if perPage < 1 {
		perPage = 5
	}
	return &Service{posts: posts, users: users, activity: activity, perPage: perPage}
}

func (s *Service) PerPage() int { return s.perPage }

// Get loads a single post.
func (s *Service) Get(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.posts.GetPost(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return post, nil
}

// Create publishes a post authored by id.
func (s *Service) Create(ctx context.Context, id *models.Identity, form *models.PostForm) (*models.Post, error) {
	if id == nil {
		return nil, ErrUnauthenticated
	}
	if err := web.Validate(form); err != nil {
		return nil, err
	}

	post, err := s.posts.CreatePost(ctx, id.UserID, form.Title, form.Content)
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, models.ActionCreated, post)
	return post, nil
}

// Editable loads a post and checks that id may change it.
func (s *Service) Editable(ctx context.Context, id *models.Identity, postID int64) (*models.Post, error) {
	if id == nil {
		return nil, ErrUnauthenticated
	}
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != id.UserID {
		return nil, ErrForbidden
	}
	return post, nil
}

// Update rewrites title and content. form.Version must match the stored
// version; zero means "whatever is stored now".
func (s *Service) Update(ctx context.Context, id *models.Identity, postID int64, form *models.PostForm) (*models.Post, error) {
	post, err := s.Editable(ctx, id, postID)
	if err != nil {
		return nil, err
	}
	if err := web.Validate(form); err != nil {
		return nil, err
	}

	version := form.Version
	if version == 0 {
		version = post.Version
	}
	updated, err := s.posts.UpdatePost(ctx, postID, version, form.Title, form.Content)
	if errors.Is(err, store.ErrStale) {
		return nil, ErrConflict
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, models.ActionUpdated, updated)
	return updated, nil
}

// Delete removes a post owned by id.
func (s *Service) Delete(ctx context.Context, id *models.Identity, postID int64) error {
	post, err := s.Editable(ctx, id, postID)
	if err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.record(ctx, id, models.ActionDeleted, post)
	return nil
}

// List returns page number of all posts, or of author's posts when author
// is set, newest first. Pages past the end are empty.
func (s *Service) List(ctx context.Context, number int, author string) (*models.Page, *models.User, error) {
	if number < 1 {
		number = 1
	}

	var user *models.User
	var authorID int64
	if author != "" {
		u, err := s.users.GetUserByUsername(ctx, author)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		if err != nil {
			return nil, nil, fmt.Errorf("list posts by %s: %w", author, err)
		}
		user, authorID = u, u.ID
	}

	// Offsets past math.MaxInt are necessarily past the end; only count.
	if number-1 > math.MaxInt/s.perPage {
		_, total, err := s.posts.ListPosts(ctx, authorID, 0, 0)
		if err != nil {
			return nil, nil, err
		}
		return &models.Page{Items: []models.Post{}, Number: number, PerPage: s.perPage, Total: total}, user, nil
	}

	items, total, err := s.posts.ListPosts(ctx, authorID, s.perPage, (number-1)*s.perPage)
	if err != nil {
		return nil, nil, err
	}
	return &models.Page{Items: items, Number: number, PerPage: s.perPage, Total: total}, user, nil
}

func (s *Service) record(ctx context.Context, id *models.Identity, action string, post *models.Post) {
	if s.activity == nil {
		return
	}
	err := s.activity.Record(ctx, &models.Activity{
		UserID:   id.UserID,
		Username: id.Username,
		Action:   action,
		PostID:   post.ID,
		Title:    post.Title,
	})
	if err != nil {
		log.Printf("activity %s post %d: %v", action, post.ID, err)
	}
}
