package models

import "time"

// Post represents a row in the PostgreSQL posts table joined with its
// author's username.
type Post struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	DatePosted time.Time `json:"date_posted"`
	AuthorID   int64     `json:"author_id"`
	Author     string    `json:"author"`
	AuthorImg  string    `json:"author_image"`
	Version    int       `json:"version"`
}

// PostForm is the form body for creating and updating a post. Version is
// only meaningful on update, where it carries the version the editor saw.
type PostForm struct {
	Title   string `schema:"title" validate:"required,max=255"`
	Content string `schema:"content" validate:"required"`
	Version int    `schema:"version"`
}
