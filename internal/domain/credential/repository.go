package credential

import "context"

// SaveInput carries one token pair into the vault. MemberID may be
// empty when the caller is not authenticated.
type SaveInput struct {
	SWID     string
	S2       string
	MemberID string
	Ref      string
}

// Repository is the storage port for the credential vault. Save applies
// the member rebinding rules atomically against the stored row. Lookups
// by SWID go through the swid_hash index.
type Repository interface {
	Save(ctx context.Context, input SaveInput) (Credential, error)
	FindBySWID(ctx context.Context, swid string) (Credential, bool, error)
	FindBySWIDHash(ctx context.Context, hash string) (Credential, bool, error)
	FindByMember(ctx context.Context, memberID string) (Credential, bool, error)
}
