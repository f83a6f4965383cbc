package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresDirectory reads the portal's users table. The table is owned by the
// surrounding portal; this directory only queries it.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) UsersWithRole(ctx context.Context, role, department string) ([]User, error) {
	query := `
		SELECT
			id
		  , name
		  , role
		  , COALESCE(department, '')
		FROM users
		WHERE is_active = TRUE AND role = $1
	`
	args := []any{role}

	if department != "" {
		query += " AND department = $2"
		args = append(args, department)
	}

	query += " ORDER BY id"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users with role %s: %w", role, err)
	}
	defer rows.Close()

	users := make([]User, 0)

	for rows.Next() {
		user := User{IsActive: true}

		err := rows.Scan(&user.ID, &user.Name, &user.Role, &user.Department)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, user)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (d *PostgresDirectory) UserByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT
			id
		  , name
		  , role
		  , COALESCE(department, '')
		  , is_active
		FROM users
		WHERE id = $1
	`

	user := &User{}

	err := d.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Role, &user.Department, &user.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to scan user %s: %w", id, err)
	}

	return user, nil
}
