package store

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
)

// Storages groups the local storage layer into a single value that can be
// passed to the service layer.
type Storages struct {
	// MailStorage is the local mailbox: SQL metadata plus body files.
	MailStorage MailStorage

	db *DB
}

// NewStorages initialises the storage layer:
//  1. opens the database named by cfg.DB.DSN (SQLite file or PostgreSQL);
//  2. runs pending schema migrations via [DB.Migrate];
//  3. roots the body store at cfg.Files.BodyDir.
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewStorages(ctx context.Context, cfg config.ClientStorage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnect(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	bodies := NewBodyFileStorage(osfs.New(cfg.Files.BodyDir), logger)

	return &Storages{
		MailStorage: NewMailStorage(NewMessageRepository(db, logger), bodies, logger),
		db:          db,
	}, nil
}

// Close closes the database connection.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
