package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new operator and returns it.
func (r *Repository) Create(ctx context.Context, email, passwordHash, displayName, role string) (*Operator, error) {
	var id uuid.UUID
	row := r.pool.QueryRow(ctx, `
		INSERT INTO operators (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, email, passwordHash, displayName, role)
	if err := row.Scan(&id); err != nil {
		return nil, err
	}
	return &Operator{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
	}, nil
}

// GetByEmail returns the operator and password hash for login. Returns nil if not found.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Operator, string, error) {
	var op Operator
	var passwordHash string
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, role, password_hash
		FROM operators WHERE email = $1
	`, email)
	if err := row.Scan(&op.ID, &op.Email, &op.DisplayName, &op.Role, &passwordHash); err != nil {
		if err.Error() == "no rows in result set" {
			return nil, "", nil
		}
		return nil, "", err
	}
	return &op, passwordHash, nil
}
