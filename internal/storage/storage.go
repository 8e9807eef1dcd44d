// Package storage provides the SQLite-backed token registry: the active
// tracked-token set, the persisted leaderboard message reference, and the
// per-token poll cursor.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"spyton-bot/internal/models"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Storage wraps the SQLite database holding tracked-token configuration.
type Storage struct {
	db *sql.DB
}

// New opens or creates the registry database at dbPath.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join("data", "spyton.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
		token_id               INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id                INTEGER NOT NULL,
		token_address          TEXT NOT NULL,
		token_symbol           TEXT NOT NULL DEFAULT '',
		token_name             TEXT NOT NULL DEFAULT '',
		emoji                  TEXT NOT NULL DEFAULT '🟩',
		media_file_id          TEXT NOT NULL DEFAULT '',
		min_quote_amount       TEXT NOT NULL DEFAULT '0',
		leaderboard_message_id INTEGER NOT NULL DEFAULT 0,
		last_trade_id          TEXT NOT NULL DEFAULT '',
		is_active              INTEGER NOT NULL DEFAULT 1
	)`)
	return err
}

// AddToken registers a token for a chat and returns its id. Any previously
// tracked token for the same chat is deactivated; one chat tracks one token.
func (s *Storage) AddToken(token models.TrackedToken) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE tokens SET is_active=0 WHERE chat_id=?`, token.ChatID); err != nil {
		return 0, fmt.Errorf("failed to deactivate previous tokens: %w", err)
	}

	res, err := tx.Exec(
		`INSERT INTO tokens (chat_id, token_address, token_symbol, token_name, emoji, media_file_id, min_quote_amount, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		token.ChatID, token.TokenAddress, token.Symbol, token.Name,
		defaultEmoji(token.Emoji), token.MediaFileID, token.MinQuoteAmount.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert token: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return id, nil
}

func defaultEmoji(emoji string) string {
	if emoji == "" {
		return "🟩"
	}
	return emoji
}

// ListActiveTokens returns the active tracked-token set for polling.
func (s *Storage) ListActiveTokens() ([]models.TrackedToken, error) {
	rows, err := s.db.Query(
		`SELECT token_id, chat_id, token_address, token_symbol, token_name, emoji,
		        media_file_id, min_quote_amount, leaderboard_message_id, last_trade_id
		 FROM tokens WHERE is_active=1 ORDER BY token_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.TrackedToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// GetToken returns one token row by id, or models.ErrTokenNotFound.
func (s *Storage) GetToken(tokenID int64) (models.TrackedToken, error) {
	row := s.db.QueryRow(
		`SELECT token_id, chat_id, token_address, token_symbol, token_name, emoji,
		        media_file_id, min_quote_amount, leaderboard_message_id, last_trade_id
		 FROM tokens WHERE token_id=? AND is_active=1`, tokenID)
	t, err := scanToken(row)
	if err == sql.ErrNoRows {
		return models.TrackedToken{}, models.ErrTokenNotFound
	}
	return t, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(r rowScanner) (models.TrackedToken, error) {
	var t models.TrackedToken
	var minAmount string
	err := r.Scan(&t.TokenID, &t.ChatID, &t.TokenAddress, &t.Symbol, &t.Name,
		&t.Emoji, &t.MediaFileID, &minAmount, &t.LeaderboardMessageID, &t.LastTradeID)
	if err != nil {
		return models.TrackedToken{}, err
	}
	t.MinQuoteAmount, err = decimal.NewFromString(minAmount)
	if err != nil {
		t.MinQuoteAmount = decimal.Zero
	}
	return t, nil
}

// SetLastTradeID persists the poll cursor so restarts do not replay alerts.
func (s *Storage) SetLastTradeID(tokenID int64, tradeID string) error {
	return s.execForToken(`UPDATE tokens SET last_trade_id=? WHERE token_id=?`, tradeID, tokenID)
}

// SetLeaderboardMessageID stores the live leaderboard message reference.
// Zero clears it, which makes the dispatcher create a fresh message.
func (s *Storage) SetLeaderboardMessageID(tokenID int64, messageID int) error {
	return s.execForToken(`UPDATE tokens SET leaderboard_message_id=? WHERE token_id=?`, messageID, tokenID)
}

// SetMinQuoteAmount updates the qualifying-buy threshold.
func (s *Storage) SetMinQuoteAmount(tokenID int64, amount decimal.Decimal) error {
	return s.execForToken(`UPDATE tokens SET min_quote_amount=? WHERE token_id=?`, amount.String(), tokenID)
}

// RemoveToken deactivates a token; the scheduler drops it next cycle.
func (s *Storage) RemoveToken(tokenID int64) error {
	return s.execForToken(`UPDATE tokens SET is_active=0 WHERE token_id=?`, tokenID)
}

func (s *Storage) execForToken(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("registry update failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrTokenNotFound
	}
	return nil
}
