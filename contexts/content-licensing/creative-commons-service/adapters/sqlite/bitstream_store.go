package sqliteadapter

import (
	"bytes"
	"context"
	"crypto/md5"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
	"ccdepot/internal/platform/db"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// BitstreamStore keeps license bitstream bytes in a local SQLite asset file.
type BitstreamStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the asset database at path and applies its schema.
func Open(path string, logger *slog.Logger) (*BitstreamStore, error) {
	logger = application.ResolveLogger(logger)
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite asset store: %w", err)
	}
	// A single connection serializes writers; SQLite allows one at a time.
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("configure sqlite asset store: %w", err)
	}
	if err := db.MigrateSQLite(sqlDB, migrations, "migrations", logger); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &BitstreamStore{db: sqlDB, logger: logger}, nil
}

func (s *BitstreamStore) Close() error {
	return s.db.Close()
}

func (s *BitstreamStore) Put(ctx context.Context, key string, content io.Reader) (ports.StoredObject, error) {
	raw, err := io.ReadAll(content)
	if err != nil {
		return ports.StoredObject{}, fmt.Errorf("read bitstream content: %w", err)
	}
	sum := md5.Sum(raw)
	object := ports.StoredObject{
		Key:       key,
		SizeBytes: int64(len(raw)),
		Checksum:  hex.EncodeToString(sum[:]),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bitstream_objects (storage_key, content, size_bytes, checksum, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(storage_key) DO UPDATE SET
		   content = excluded.content,
		   size_bytes = excluded.size_bytes,
		   checksum = excluded.checksum`,
		key, raw, object.SizeBytes, object.Checksum, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return ports.StoredObject{}, fmt.Errorf("store bitstream %q: %w", key, err)
	}
	return object, nil
}

func (s *BitstreamStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM bitstream_objects WHERE storage_key = ?`, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bitstream object %q not stored", key)
	}
	if err != nil {
		return nil, fmt.Errorf("load bitstream %q: %w", key, err)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

// Delete removes the object; deleting a missing key succeeds.
func (s *BitstreamStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bitstream_objects WHERE storage_key = ?`, key); err != nil {
		return fmt.Errorf("delete bitstream %q: %w", key, err)
	}
	s.logger.Debug("bitstream object deleted",
		"event", "cc_bitstream_object_deleted",
		"module", application.ModuleName,
		"layer", "adapter",
		"storage_key", key,
	)
	return nil
}
