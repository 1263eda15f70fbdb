package adapter

import (
	"context"
	"errors"

	chat "resto-chat/internal/pkg/chat/application/domain"
	repository "resto-chat/internal/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgIdentityRepository struct {
	pool *pgxpool.Pool
}

func NewPgIdentityRepository(pool *pgxpool.Pool) *PgIdentityRepository {
	return &PgIdentityRepository{pool: pool}
}

var _ repository.IdentityDirectory = (*PgIdentityRepository)(nil)

func (r *PgIdentityRepository) GetByID(ctx context.Context, id string) (*chat.Identity, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgIdentityRepository: nil pool")
	}

	var ident chat.Identity
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, role, display_name, COALESCE(phone, '')
		FROM chat.identity
		WHERE id = $1::uuid
	`, id).Scan(&ident.ID, &ident.Role, &ident.DisplayName, &ident.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

func (r *PgIdentityRepository) ListStaff(ctx context.Context) ([]chat.Identity, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgIdentityRepository: nil pool")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, role, display_name, COALESCE(phone, '')
		FROM chat.identity
		WHERE role = $1
	`, string(chat.RoleStaff))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []chat.Identity
	for rows.Next() {
		var ident chat.Identity
		if err := rows.Scan(&ident.ID, &ident.Role, &ident.DisplayName, &ident.Phone); err != nil {
			return nil, err
		}
		staff = append(staff, ident)
	}
	return staff, rows.Err()
}

func (r *PgIdentityRepository) RegisterDevice(ctx context.Context, identityID, token, platform string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgIdentityRepository: nil pool")
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.device (identity_id, token, platform)
		VALUES ($1::uuid, $2, $3)
		ON CONFLICT (identity_id, token)
		DO UPDATE SET platform = EXCLUDED.platform, registered_at = now()
	`, identityID, token, platform)
	return err
}

func (r *PgIdentityRepository) ListDeviceTokens(ctx context.Context, identityID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgIdentityRepository: nil pool")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT token FROM chat.device WHERE identity_id = $1::uuid
	`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
