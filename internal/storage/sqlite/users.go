package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

const userColumns = `u.id, u.email, u.username, u.first_name, u.last_name,
	u.password_hash, u.role, u.avatar, u.created_at`

// isSubscribedExpr yields 1 when the viewer (first bound arg) follows u.
const isSubscribedExpr = `EXISTS (SELECT 1 FROM subscriptions s WHERE s.author_id = u.id AND s.user_id = ?)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (*models.User, error) {
	user := &models.User{}
	dest := []any{
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Role,
		&user.Avatar,
		&user.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user into the database and assigns its ID.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, username, first_name, last_name, password_hash, role, avatar, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Role,
		user.Avatar,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = ?`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", mapError(err))
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, mapError(err))
	}
	return user, nil
}

// GetUserForViewer retrieves a user with IsSubscribed computed for viewerID.
func (s *SQLiteStore) GetUserForViewer(ctx context.Context, id, viewerID int64) (*models.User, error) {
	var subscribed bool
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, `+isSubscribedExpr+` FROM users u WHERE u.id = ?`,
		viewerID, id,
	)
	user, err := scanUser(row, &subscribed)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, mapError(err))
	}
	user.IsSubscribed = subscribed
	return user, nil
}

// getUsersByIDs retrieves multiple users by their IDs with viewer flags.
// Users that don't exist are omitted from the result.
func (s *SQLiteStore) getUsersByIDs(ctx context.Context, q querier, ids []int64, viewerID int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	args := append([]any{viewerID}, int64Args(ids)...)
	rows, err := q.QueryContext(ctx,
		`SELECT `+userColumns+`, `+isSubscribedExpr+`
		 FROM users u WHERE u.id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var subscribed bool
		user, err := scanUser(rows, &subscribed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.IsSubscribed = subscribed
		users[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// ListUsers returns a page of users ordered by username and the total count.
// search, when non-empty, matches a substring of username or email.
func (s *SQLiteStore) ListUsers(ctx context.Context, viewerID int64, search string, limit, offset int) ([]*models.User, int, error) {
	where := ""
	var whereArgs []any
	if search != "" {
		pattern := "%" + escapeLike(search) + "%"
		where = ` WHERE u.username LIKE ? ESCAPE '\' OR u.email LIKE ? ESCAPE '\'`
		whereArgs = append(whereArgs, pattern, pattern)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+where, whereArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	args := append([]any{viewerID}, whereArgs...)
	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+`, `+isSubscribedExpr+` FROM users u`+where+`
		 ORDER BY u.username LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var subscribed bool
		user, err := scanUser(rows, &subscribed)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		user.IsSubscribed = subscribed
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}
	return users, total, nil
}

func (s *SQLiteStore) updateUserColumn(ctx context.Context, userID int64, column string, value any) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET `+column+` = ? WHERE id = ?`, value, userID)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", column, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", column, err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", userID, storage.ErrNotFound)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (s *SQLiteStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return s.updateUserColumn(ctx, userID, "password_hash", passwordHash)
}

// UpdateAvatar sets or clears (empty string) the avatar media path.
func (s *SQLiteStore) UpdateAvatar(ctx context.Context, userID int64, avatar string) error {
	return s.updateUserColumn(ctx, userID, "avatar", avatar)
}

// UpdateRole changes the user's role.
func (s *SQLiteStore) UpdateRole(ctx context.Context, userID int64, role string) error {
	return s.updateUserColumn(ctx, userID, "role", role)
}

// CreateSubscription records that userID follows authorID.
func (s *SQLiteStore) CreateSubscription(ctx context.Context, userID, authorID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO subscriptions (user_id, author_id) VALUES (?, ?)",
		userID, authorID,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", mapError(err))
	}
	return nil
}

// DeleteSubscription removes the follow relationship.
func (s *SQLiteStore) DeleteSubscription(ctx context.Context, userID, authorID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE user_id = ? AND author_id = ?",
		userID, authorID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subscription %d->%d: %w", userID, authorID, storage.ErrNotFound)
	}
	return nil
}

// ListSubscriptions returns a page of the authors userID follows, ordered by username.
func (s *SQLiteStore) ListSubscriptions(ctx context.Context, userID int64, limit, offset int) ([]*models.User, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subscriptions WHERE user_id = ?", userID).Scan(&total)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users u
		 JOIN subscriptions s ON s.author_id = u.id
		 WHERE s.user_id = ?
		 ORDER BY u.username LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var authors []*models.User
	for rows.Next() {
		author, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan author: %w", err)
		}
		author.IsSubscribed = true
		authors = append(authors, author)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return authors, total, nil
}
