package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bindiq/onboarding-server/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	sessionMu sync.Mutex // Serializes session writes to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		zip_code TEXT,
		full_name TEXT,
		email TEXT,
		license_type TEXT,
		license_status TEXT,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_last_seen ON users(last_seen_at);

	CREATE TABLE IF NOT EXISTS sessions (
		user_id TEXT PRIMARY KEY,
		current_state TEXT NOT NULL,
		state_data TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, timestamp);

	CREATE TABLE IF NOT EXISTS vehicles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		vin TEXT,
		year INTEGER,
		make TEXT,
		body_type TEXT,
		vehicle_use TEXT,
		blind_spot_warning INTEGER,
		days_per_week INTEGER,
		one_way_miles INTEGER,
		annual_mileage INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_vehicles_user ON vehicles(user_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, zip_code, full_name, email, license_type, license_status,
		       last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var zipCode, fullName, email, licenseType, licenseStatus sql.NullString
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(
		&user.UserID, &zipCode, &fullName, &email, &licenseType, &licenseStatus,
		&lastSeen, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.ZipCode = zipCode.String
	user.FullName = fullName.String
	user.Email = email.String
	user.LicenseType = licenseType.String
	user.LicenseStatus = licenseStatus.String
	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, zip_code, full_name, email, license_type, license_status,
	                   last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, nullable(user.ZipCode), nullable(user.FullName), nullable(user.Email),
		nullable(user.LicenseType), nullable(user.LicenseStatus),
		user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateProfile applies the non-nil fields of update to a user.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	var sets []string
	var args []interface{}
	appendSet := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}
	appendSet("zip_code", update.ZipCode)
	appendSet("full_name", update.FullName)
	appendSet("email", update.Email)
	appendSet("license_type", update.LicenseType)
	appendSet("license_status", update.LicenseStatus)

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().Unix(), userID)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// GetSession retrieves conversation state for a user.
func (s *SQLiteStore) GetSession(ctx context.Context, userID string) (*domain.Session, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	query := `
		SELECT user_id, current_state, state_data, created_at, updated_at
		FROM sessions WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var session domain.Session
	var stateData string
	var createdAt, updatedAt int64

	err := row.Scan(&session.UserID, &session.CurrentState, &stateData, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	if err := json.Unmarshal([]byte(stateData), &session.Data); err != nil {
		return nil, fmt.Errorf("decode session data: %w", err)
	}
	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)

	return &session, nil
}

// UpdateSessionState sets the current state and optionally the scratch data.
// The session row is created on first write.
func (s *SQLiteStore) UpdateSessionState(ctx context.Context, userID string, state string, data *domain.SessionData) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	stateData := "{}"
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode session data: %w", err)
		}
		stateData = string(encoded)
	}

	now := time.Now().Unix()
	query := `
		INSERT INTO sessions (user_id, current_state, state_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			current_state = excluded.current_state,
			state_data = CASE WHEN ? THEN excluded.state_data ELSE sessions.state_data END,
			updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query, userID, state, stateData, now, now, data != nil)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// SaveMessage appends a chat message to a user's history.
func (s *SQLiteStore) SaveMessage(ctx context.Context, userID, role, content string) error {
	query := `INSERT INTO messages (user_id, role, content, timestamp) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, userID, role, content, time.Now().Unix()); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// GetMessages returns a user's chat history in chronological order.
func (s *SQLiteStore) GetMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, user_id, role, content, timestamp
		FROM messages WHERE user_id = ? ORDER BY timestamp, id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close message rows", "error", closeErr)
		}
	}()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		var ts int64
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &ts); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.Timestamp = time.Unix(ts, 0)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// SaveVehicle persists a finalized vehicle record.
func (s *SQLiteStore) SaveVehicle(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (user_id, vin, year, make, body_type, vehicle_use,
		                      blind_spot_warning, days_per_week, one_way_miles,
		                      annual_mileage, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var blindSpot interface{}
	if vehicle.BlindSpotWarning != nil {
		blindSpot = *vehicle.BlindSpotWarning
	}

	result, err := s.db.ExecContext(ctx, query,
		vehicle.UserID, nullable(vehicle.VIN), nullableInt(vehicle.Year),
		nullable(vehicle.Make), nullable(vehicle.BodyType), nullable(vehicle.VehicleUse),
		blindSpot, nullableInt(vehicle.DaysPerWeek), nullableInt(vehicle.OneWayMiles),
		nullableInt(vehicle.AnnualMileage), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save vehicle: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		vehicle.ID = id
	}
	return nil
}

// GetVehicles returns all vehicles recorded for a user.
func (s *SQLiteStore) GetVehicles(ctx context.Context, userID string) ([]domain.Vehicle, error) {
	query := `
		SELECT id, user_id, vin, year, make, body_type, vehicle_use,
		       blind_spot_warning, days_per_week, one_way_miles, annual_mileage, created_at
		FROM vehicles WHERE user_id = ? ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close vehicle rows", "error", closeErr)
		}
	}()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		var vin, vehicleMake, bodyType, vehicleUse sql.NullString
		var year, daysPerWeek, oneWayMiles, annualMileage sql.NullInt64
		var blindSpot sql.NullBool
		var createdAt int64

		if err := rows.Scan(
			&v.ID, &v.UserID, &vin, &year, &vehicleMake, &bodyType, &vehicleUse,
			&blindSpot, &daysPerWeek, &oneWayMiles, &annualMileage, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan vehicle row: %w", err)
		}

		v.VIN = vin.String
		v.Year = int(year.Int64)
		v.Make = vehicleMake.String
		v.BodyType = bodyType.String
		v.VehicleUse = vehicleUse.String
		if blindSpot.Valid {
			b := blindSpot.Bool
			v.BlindSpotWarning = &b
		}
		v.DaysPerWeek = int(daysPerWeek.Int64)
		v.OneWayMiles = int(oneWayMiles.Int64)
		v.AnnualMileage = int(annualMileage.Int64)
		v.CreatedAt = time.Unix(createdAt, 0)
		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicles: %w", err)
	}

	return vehicles, nil
}

// GetIdleUsers returns IDs of users not seen within the TTL.
func (s *SQLiteStore) GetIdleUsers(ctx context.Context, ttl time.Duration) ([]string, error) {
	threshold := time.Now().Add(-ttl).Unix()
	query := `SELECT user_id FROM users WHERE last_seen_at < ?`

	rows, err := s.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("query idle users: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close idle user rows", "error", closeErr)
		}
	}()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan idle user row: %w", err)
		}
		userIDs = append(userIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate idle users: %w", err)
	}

	return userIDs, nil
}

// CleanupCompletedSessions removes completed sessions idle beyond the TTL.
// Profile, vehicle, and message rows are kept.
func (s *SQLiteStore) CleanupCompletedSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	threshold := time.Now().Add(-ttl).Unix()
	query := `DELETE FROM sessions WHERE current_state = 'completed' AND updated_at < ?`
	result, err := s.db.ExecContext(ctx, query, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup completed sessions: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
