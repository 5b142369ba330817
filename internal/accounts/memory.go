package accounts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/insightboard/insightboard/internal/models"
)

// MemoryRepository is an in-process Repository used by tests and local runs.
type MemoryRepository struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]models.User
	byExternal  map[int64]int64
	credentials map[int64]models.Credential
	// FailCredentialWrite makes the next credential write fail, leaving no
	// trace of the user write either.
	FailCredentialWrite error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:       map[int64]models.User{},
		byExternal:  map[int64]int64{},
		credentials: map[int64]models.Credential{},
	}
}

func (r *MemoryRepository) UpsertWithCredential(_ context.Context, p models.Profile, encryptedSecret string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailCredentialWrite; err != nil {
		r.FailCredentialWrite = nil
		return models.User{}, err
	}

	now := time.Now().UTC()
	u, ok := r.users[r.byExternal[p.ID]]
	if !ok {
		r.nextID++
		u = models.User{ID: r.nextID, ExternalID: p.ID, CreatedAt: now}
		r.byExternal[p.ID] = u.ID
	}
	u.Username, u.AvatarURL, u.UpdatedAt = p.Login, p.AvatarURL, now
	r.users[u.ID] = u
	r.credentials[u.ID] = models.Credential{UserID: u.ID, EncryptedSecret: encryptedSecret, UpdatedAt: now}
	return u, nil
}

func (r *MemoryRepository) ListCredentials(_ context.Context) ([]models.CredentialRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs := make([]models.CredentialRecord, 0, len(r.credentials))
	for id, c := range r.credentials {
		recs = append(recs, models.CredentialRecord{UserID: id, Username: r.users[id].Username, EncryptedSecret: c.EncryptedSecret})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].UserID < recs[j].UserID })
	return recs, nil
}

// SetCredential overwrites a stored ciphertext; tests use it to plant unusable credentials.
func (r *MemoryRepository) SetCredential(userID int64, encryptedSecret string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credentials[userID] = models.Credential{UserID: userID, EncryptedSecret: encryptedSecret, UpdatedAt: time.Now().UTC()}
}

// Counts reports the number of users and credentials held.
func (r *MemoryRepository) Counts() (users, credentials int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), len(r.credentials)
}
