package sqlite

import (
	"context"
	"fmt"
)

// RevokeToken records a token ID as revoked until expiresAt (Unix seconds).
func (s *SQLiteStore) RevokeToken(ctx context.Context, tokenID string, expiresAt int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO revoked_tokens (token_id, expires_at) VALUES (?, ?)",
		tokenID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether the token ID has been revoked.
func (s *SQLiteStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = ?)", tokenID,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return revoked, nil
}

// PurgeExpiredTokens drops revocation records whose tokens expired before now.
func (s *SQLiteStore) PurgeExpiredTokens(ctx context.Context, now int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM revoked_tokens WHERE expires_at < ?", now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	return res.RowsAffected()
}
