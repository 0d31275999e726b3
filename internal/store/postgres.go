package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alok/blog/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")
	// ErrStale is returned when a post changed since the caller read it.
	ErrStale = errors.New("stale version")
)

const uniqueViolation = "23505"

// PostgresStore handles users and posts against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users and posts tables if they don't exist.
// Deleting a user that still has posts is refused by the foreign key.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL    PRIMARY KEY,
			username      VARCHAR(20)  NOT NULL,
			email         VARCHAR(120) NOT NULL,
			password      VARCHAR(60)  NOT NULL,
			image_file    VARCHAR(100) NOT NULL DEFAULT 'default.jpg',
			register_date TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			CONSTRAINT users_username_key UNIQUE (username),
			CONSTRAINT users_email_key UNIQUE (email)
		);

		CREATE TABLE IF NOT EXISTS posts (
			id          BIGSERIAL    PRIMARY KEY,
			title       VARCHAR(255) NOT NULL,
			content     TEXT         NOT NULL,
			date_posted TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			user_id     BIGINT       NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
			version     INTEGER      NOT NULL DEFAULT 1
		);

		CREATE INDEX IF NOT EXISTS posts_date_posted_idx ON posts (date_posted DESC, id);
		CREATE INDEX IF NOT EXISTS posts_user_id_idx ON posts (user_id);
	`)
	return err
}

// ── Users ────────────────────────────────────────────────

const userColumns = `id, username, email, password, image_file, register_date`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.ImageFile, &u.RegisterDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, hashedPassword string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		username, email, hashedPassword,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return nil, ErrUsernameTaken
			case "users_email_key":
				return nil, ErrEmailTaken
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// SetImageFile replaces a user's avatar reference and returns the previous one.
func (s *PostgresStore) SetImageFile(ctx context.Context, userID int64, imageFile string) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("set image file: %w", err)
	}
	defer tx.Rollback(ctx)

	var previous string
	err = tx.QueryRow(ctx,
		`SELECT image_file FROM users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("set image file: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET image_file = $2 WHERE id = $1`, userID, imageFile,
	); err != nil {
		return "", fmt.Errorf("set image file: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("set image file: %w", err)
	}
	return previous, nil
}

// ── Posts ────────────────────────────────────────────────

const postSelect = `
	SELECT p.id, p.title, p.content, p.date_posted, p.user_id, u.username, u.image_file, p.version
	FROM posts p
	JOIN users u ON u.id = p.user_id`

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.DatePosted, &p.AuthorID, &p.Author, &p.AuthorImg, &p.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, authorID int64, title, content string) (*models.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, `
		WITH p AS (
			INSERT INTO posts (title, content, user_id)
			VALUES ($1, $2, $3)
			RETURNING id, title, content, date_posted, user_id, version
		)
		SELECT p.id, p.title, p.content, p.date_posted, p.user_id, u.username, u.image_file, p.version
		FROM p
		JOIN users u ON u.id = p.user_id`,
		title, content, authorID,
	))
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	return scanPost(s.pool.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
}

// UpdatePost writes title and content if the stored version still equals
// version, bumping it by one. It returns ErrStale on a version mismatch and
// ErrNotFound when the post is gone.
func (s *PostgresStore) UpdatePost(ctx context.Context, id int64, version int, title, content string) (*models.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, `
		WITH p AS (
			UPDATE posts
			SET title = $3, content = $4, version = version + 1
			WHERE id = $1 AND version = $2
			RETURNING id, title, content, date_posted, user_id, version
		)
		SELECT p.id, p.title, p.content, p.date_posted, p.user_id, u.username, u.image_file, p.version
		FROM p
		JOIN users u ON u.id = p.user_id`,
		id, version, title, content,
	))
	if errors.Is(err, ErrNotFound) {
		return nil, s.missingOrStale(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return p, nil
}

// missingOrStale explains why a versioned update matched no row.
func (s *PostgresStore) missingOrStale(ctx context.Context, id int64) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStale
}

func (s *PostgresStore) DeletePost(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPosts returns one window of posts newest first together with the
// total count. authorID 0 lists every author.
func (s *PostgresStore) ListPosts(ctx context.Context, authorID int64, limit, offset int) ([]models.Post, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE $1::bigint = 0 OR user_id = $1`, authorID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	rows, err := s.pool.Query(ctx, postSelect+`
		WHERE $1::bigint = 0 OR p.user_id = $1
		ORDER BY p.date_posted DESC, p.id ASC
		LIMIT $2 OFFSET $3`,
		authorID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}
