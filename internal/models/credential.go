package models

import "time"

// Credential is the single active provider credential of a user. The secret
// is only ever held in its encrypted form.
type Credential struct {
	UserID          int64     `bson:"_id" json:"userId"`
	EncryptedSecret string    `bson:"accessTokenEncrypted" json:"-"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CredentialRecord is one row of the worker's sweep: a user joined with the
// ciphertext of their credential.
type CredentialRecord struct {
	UserID          int64
	Username        string
	EncryptedSecret string
}
