package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post mutations recorded in the activity log.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Activity is a single post mutation stored in MongoDB.
type Activity struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	UserID    int64              `json:"user_id"    bson:"user_id"`
	Username  string             `json:"username"   bson:"username"`
	Action    string             `json:"action"     bson:"action"`
	PostID    int64              `json:"post_id"    bson:"post_id"`
	Title     string             `json:"title"      bson:"title"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
