package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
)

// CredentialRepository is an in-memory vault used by tests and local
// runs without a database. It applies the same rebinding rules as the
// durable implementation.
type CredentialRepository struct {
	mu     sync.RWMutex
	bySWID map[string]credential.Credential
}

func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{bySWID: make(map[string]credential.Credential)}
}

func (r *CredentialRepository) Save(_ context.Context, input credential.SaveInput) (credential.Credential, error) {
	swid := credential.NormalizeSWID(input.SWID)
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.bySWID[swid]
	if !ok {
		row = credential.Credential{
			SWID:      swid,
			SWIDHash:  credential.Hash(swid),
			FirstSeen: now,
		}
	}

	row.MemberID = credential.ResolveBinding(row.MemberID, input.MemberID)
	if s2 := strings.TrimSpace(input.S2); s2 != "" {
		row.S2 = s2
		row.S2Hash = credential.Hash(s2)
	}
	if ref := strings.TrimSpace(input.Ref); ref != "" {
		row.Ref = ref
	}
	row.LastSeen = now

	r.bySWID[swid] = row
	return row, nil
}

func (r *CredentialRepository) FindBySWID(ctx context.Context, swid string) (credential.Credential, bool, error) {
	return r.FindBySWIDHash(ctx, credential.Hash(credential.NormalizeSWID(swid)))
}

func (r *CredentialRepository) FindBySWIDHash(_ context.Context, hash string) (credential.Credential, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, row := range r.bySWID {
		if row.SWIDHash == hash {
			return row, true, nil
		}
	}
	return credential.Credential{}, false, nil
}

func (r *CredentialRepository) FindByMember(_ context.Context, memberID string) (credential.Credential, bool, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return credential.Credential{}, false, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best credential.Credential
	var found bool
	for _, row := range r.bySWID {
		if row.MemberID != memberID {
			continue
		}
		if !found || row.LastSeen.After(best.LastSeen) {
			best = row
			found = true
		}
	}
	return best, found, nil
}
