// Package accounts persists users and their encrypted provider credential.
// A credential never exists without its user and is replaced wholesale on
// every login.
package accounts

import (
	"context"

	"github.com/insightboard/insightboard/internal/models"
)

// Repository is the Credential Store.
type Repository interface {
	// UpsertWithCredential upserts the user by provider id and stores the
	// encrypted credential for the resolved internal id in one transaction.
	UpsertWithCredential(ctx context.Context, p models.Profile, encryptedSecret string) (models.User, error)
	// ListCredentials returns every user that has a stored credential.
	ListCredentials(ctx context.Context) ([]models.CredentialRecord, error)
}
