package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/santacasa-ti/plantao-board/internal/models"
)

const operatorColumns = `id, username, password_hash, display_name, email, role, active, created_at, updated_at`

// OperatorPatch carries the mutable fields of an operator account. A nil
// field is left untouched. PasswordHash must already be hashed by the caller
type OperatorPatch struct {
	DisplayName  *string
	Email        *string
	Active       *bool
	PasswordHash *string
}

func scanOperator(row pgx.Row) (models.Operator, error) {
	var o models.Operator
	err := row.Scan(
		&o.ID, &o.Username, &o.PasswordHash, &o.DisplayName, &o.Email,
		&o.Role, &o.Active, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func (s *PostgresStore) ListOperators(ctx context.Context) ([]models.Operator, error) {
	query := fmt.Sprintf(`SELECT %s FROM operators ORDER BY username`, operatorColumns)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query operators: %w", err)
	}
	defer rows.Close()

	var operators []models.Operator
	for rows.Next() {
		o, err := scanOperator(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operator: %w", err)
		}
		operators = append(operators, o)
	}
	return operators, rows.Err()
}

func (s *PostgresStore) GetOperatorByUsername(ctx context.Context, username string) (models.Operator, error) {
	query := fmt.Sprintf(`SELECT %s FROM operators WHERE username = $1`, operatorColumns)
	o, err := scanOperator(s.pool.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Operator{}, fmt.Errorf("operator %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return models.Operator{}, fmt.Errorf("failed to get operator: %w", err)
	}
	return o, nil
}

// CreateOperator inserts a new active operator account. Role defaults to
// "operator" when empty
func (s *PostgresStore) CreateOperator(ctx context.Context, username, passwordHash, displayName, email, role string) (int64, error) {
	if role == "" {
		role = models.RoleOperator
	}
	query := `
		INSERT INTO operators (username, password_hash, display_name, email, role, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id
	`
	var id int64
	err := s.pool.QueryRow(ctx, query, username, passwordHash, displayName, email, role).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create operator: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateOperator(ctx context.Context, id int64, patch OperatorPatch) error {
	var clauses []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.DisplayName != nil {
		add("display_name", *patch.DisplayName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Active != nil {
		add("active", *patch.Active)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	clauses = append(clauses, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE operators SET %s WHERE id = $%d`, strings.Join(clauses, ", "), len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update operator: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("operator %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteOperator(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM operators WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete operator: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("operator %d: %w", id, ErrNotFound)
	}
	return nil
}
