package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
	qb "github.com/fortifiedfantasy/fein-engine/internal/platform/querybuilder"
)

const credentialColumns = "id, swid, s2, swid_hash, s2_hash, member_id, ref, first_seen, last_seen"

type CredentialRepository struct {
	db *sqlx.DB
}

func NewCredentialRepository(db *sqlx.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Save upserts one token pair. The stored row is locked before the
// member binding is decided, so two concurrent saves for the same SWID
// cannot interleave their rebind decisions. A lost insert race is
// retried once; the second pass takes the update branch.
func (r *CredentialRepository) Save(ctx context.Context, input credential.SaveInput) (credential.Credential, error) {
	swid := credential.NormalizeSWID(input.SWID)
	if swid == "" {
		return credential.Credential{}, fmt.Errorf("swid must not be empty")
	}

	var saved credential.Credential
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		saved, err = r.saveOnce(ctx, swid, input)
		if err == nil || !isUniqueViolation(err) {
			return saved, err
		}
	}
	return credential.Credential{}, fmt.Errorf("save credential lost insert race twice: %w", err)
}

func (r *CredentialRepository) saveOnce(ctx context.Context, swid string, input credential.SaveInput) (credential.Credential, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return credential.Credential{}, fmt.Errorf("begin tx save credential: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing credentialTableModel
	query := "SELECT " + credentialColumns + " FROM ff_credentials WHERE swid = $1 FOR UPDATE"
	err = tx.GetContext(ctx, &existing, query, swid)
	switch {
	case isNotFound(err):
		if err := r.insertCredential(ctx, tx, swid, input); err != nil {
			return credential.Credential{}, err
		}
	case err != nil:
		return credential.Credential{}, fmt.Errorf("lock credential row: %w", err)
	default:
		if err := r.updateCredential(ctx, tx, existing, input); err != nil {
			return credential.Credential{}, err
		}
	}

	var saved credentialTableModel
	if err := tx.GetContext(ctx, &saved, "SELECT "+credentialColumns+" FROM ff_credentials WHERE swid = $1", swid); err != nil {
		return credential.Credential{}, fmt.Errorf("reload saved credential: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return credential.Credential{}, fmt.Errorf("commit save credential tx: %w", err)
	}
	return saved.toDomain(), nil
}

func (r *CredentialRepository) insertCredential(ctx context.Context, tx *sqlx.Tx, swid string, input credential.SaveInput) error {
	memberID := credential.ResolveBinding("", input.MemberID)
	insertModel := credentialInsertModel{
		SWID:     swid,
		S2:       strings.TrimSpace(input.S2),
		SWIDHash: credential.Hash(swid),
		S2Hash:   credential.Hash(strings.TrimSpace(input.S2)),
		MemberID: nullableString(memberID),
		Ref:      strings.TrimSpace(input.Ref),
	}

	query, args, err := qb.InsertModel("ff_credentials", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert credential query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) updateCredential(ctx context.Context, tx *sqlx.Tx, existing credentialTableModel, input credential.SaveInput) error {
	memberID := credential.ResolveBinding(existing.MemberID.String, input.MemberID)

	s2 := strings.TrimSpace(input.S2)
	builder := qb.Update("ff_credentials").
		Set("member_id", nullableString(memberID)).
		SetExpr("last_seen", "NOW()")
	if s2 != "" {
		builder.Set("s2", s2).Set("s2_hash", credential.Hash(s2))
	}
	if ref := strings.TrimSpace(input.Ref); ref != "" {
		builder.Set("ref", ref)
	}

	query, args, err := builder.Where(qb.Eq("swid", existing.SWID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build update credential query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) FindBySWID(ctx context.Context, swid string) (credential.Credential, bool, error) {
	return r.FindBySWIDHash(ctx, credential.Hash(credential.NormalizeSWID(swid)))
}

func (r *CredentialRepository) FindBySWIDHash(ctx context.Context, hash string) (credential.Credential, bool, error) {
	query, args, err := qb.Select(credentialColumns).From("ff_credentials").
		Where(qb.Eq("swid_hash", hash)).
		Limit(1).
		ToSQL()
	if err != nil {
		return credential.Credential{}, false, fmt.Errorf("build select credential by hash query: %w", err)
	}

	var row credentialTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return credential.Credential{}, false, nil
		}
		return credential.Credential{}, false, fmt.Errorf("select credential by hash: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *CredentialRepository) FindByMember(ctx context.Context, memberID string) (credential.Credential, bool, error) {
	if strings.TrimSpace(memberID) == "" {
		return credential.Credential{}, false, nil
	}

	query, args, err := qb.Select(credentialColumns).From("ff_credentials").
		Where(qb.Eq("member_id", strings.TrimSpace(memberID))).
		OrderBy("last_seen DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return credential.Credential{}, false, fmt.Errorf("build select credential by member query: %w", err)
	}

	var row credentialTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return credential.Credential{}, false, nil
		}
		return credential.Credential{}, false, fmt.Errorf("select credential by member: %w", err)
	}
	return row.toDomain(), true, nil
}
