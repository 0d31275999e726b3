package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// newTestStore connects to BLOG_TEST_POSTGRES_DSN and starts from empty
// tables. The tests are skipped when the variable is unset.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("BLOG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BLOG_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE posts, users RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func TestPostgresUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alok", "alok@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ImageFile != "default.jpg" {
		t.Fatalf("image file = %q", u.ImageFile)
	}

	if _, err := s.CreateUser(ctx, "alok", "other@example.com", "hash"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username: %v", err)
	}
	if _, err := s.CreateUser(ctx, "other", "alok@example.com", "hash"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "alok@example.com")
	if err != nil || got.ID != u.ID || got.Password != "hash" {
		t.Fatalf("by email: %+v, %v", got, err)
	}
	if _, err := s.GetUserByUsername(ctx, "Alok"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("username lookup must be case-sensitive: %v", err)
	}

	prev, err := s.SetImageFile(ctx, u.ID, "avatars/x.png")
	if err != nil || prev != "default.jpg" {
		t.Fatalf("set image: %q, %v", prev, err)
	}
}

func TestPostgresPosts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alok", "alok@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	var ids []int64
	for _, title := range []string{"one", "two", "three"} {
		p, err := s.CreatePost(ctx, u.ID, title, "body")
		if err != nil {
			t.Fatalf("create post: %v", err)
		}
		if p.Author != "alok" || p.Version != 1 {
			t.Fatalf("unexpected post: %+v", p)
		}
		ids = append(ids, p.ID)
		time.Sleep(2 * time.Millisecond)
	}

	page, total, err := s.ListPosts(ctx, 0, 2, 0)
	if err != nil || total != 3 || len(page) != 2 || page[0].Title != "three" {
		t.Fatalf("list: %+v total=%d err=%v", page, total, err)
	}

	if _, err := s.UpdatePost(ctx, ids[0], 1, "uno", "body"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.UpdatePost(ctx, ids[0], 1, "eins", "body"); !errors.Is(err, ErrStale) {
		t.Fatalf("stale update: %v", err)
	}

	if err := s.DeletePost(ctx, ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeletePost(ctx, ids[1]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.UpdatePost(ctx, ids[1], 1, "gone", "body"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update of deleted post: %v", err)
	}

	empty, total, err := s.ListPosts(ctx, 0, 0, 0)
	if err != nil || total != 2 || len(empty) != 0 {
		t.Fatalf("count only: %+v total=%d err=%v", empty, total, err)
	}
}
