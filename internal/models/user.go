package models

import "time"

// User represents an application user mapped from the provider profile.
// ExternalID is the provider's stable numeric account id.
type User struct {
	ID         int64     `bson:"_id" json:"id"`
	ExternalID int64     `bson:"githubId" json:"githubId"`
	Username   string    `bson:"username" json:"username"`
	AvatarURL  string    `bson:"avatarUrl" json:"avatarUrl"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Profile is the subset of the provider's user resource the login flow consumes.
type Profile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// Identity is the verified caller attached to a request by the session gate.
type Identity struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}
