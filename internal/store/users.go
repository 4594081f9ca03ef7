package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"opsboard/internal/models"
)

// CreateUser inserts one user row.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, email, role, agency, active, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		user.Username,
		nullIfEmpty(user.DisplayName),
		nullIfEmpty(user.Email),
		string(user.Role),
		nullIfEmpty(user.Agency),
		boolToInt(user.Active),
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return err
}

// GetUser returns a user by id, or nil when missing.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, userSelect+" WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByUsername returns a user by username, or nil when missing.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, userSelect+" WHERE username = ?", strings.ToLower(strings.TrimSpace(username)))
	return scanUser(row)
}

// ListDeciders returns all active users whose role may decide extension
// requests.
func (s *Store) ListDeciders(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		userSelect+" WHERE active = 1 AND role IN (?, ?) ORDER BY username ASC",
		string(models.RoleDirector), string(models.RoleAdmin),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// SetUserActive flips the active flag.
func (s *Store) SetUserActive(ctx context.Context, id string, active bool, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET active = ?, updated_at = ? WHERE id = ?",
		boolToInt(active), formatTime(now), id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the number of user rows.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

const userSelect = `
	SELECT id, username, display_name, email, role, agency, active, password_hash, created_at, updated_at
	FROM users`

func scanUser(scanner interface {
	Scan(dest ...any) error
}) (*models.User, error) {
	var user models.User
	var displayName, email, agency sql.NullString
	var role string
	var active int
	var createdAt, updatedAt string

	if err := scanner.Scan(
		&user.ID,
		&user.Username,
		&displayName,
		&email,
		&role,
		&agency,
		&active,
		&user.PasswordHash,
		&createdAt,
		&updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	user.DisplayName = displayName.String
	user.Email = email.String
	user.Agency = agency.String
	user.Role = models.UserRole(role)
	user.Active = active != 0

	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	parsedUpdated, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = parsedCreated
	user.UpdatedAt = parsedUpdated

	return &user, nil
}
