package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avoronov/slotbot/pkg/logger"
	bolt "go.etcd.io/bbolt"
)

// Bucket holding the snapshot document, keyed by document name.
var bucketSnapshots = []byte("snapshots")

// Mirror is the optional remote document store. Both operations carry a
// context because reads and writes go over the network and must honor
// the gateway's bounded timeout.
type Mirror interface {
	// Read returns the document bytes stored under name.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write stores the document bytes under name.
	Write(ctx context.Context, name string, doc []byte) error
}

// GatewayConfig contains persistence gateway configuration.
type GatewayConfig struct {
	// DBPath is the BoltDB file path.
	DBPath string

	// DocumentName keys the snapshot, locally and in the mirror.
	DocumentName string

	// MirrorTimeout bounds each remote mirror call (default: 15s).
	MirrorTimeout time.Duration
}

// Gateway loads and durably writes snapshots: synchronously to local
// BoltDB, then best-effort to the remote mirror.
type Gateway struct {
	db      *bolt.DB
	mirror  Mirror
	docName string
	timeout time.Duration
	schema  Schema
	log     logger.Logger
}

// NewGateway opens the local database and prepares the gateway.
//
// Parameters:
//   - cfg: Gateway configuration
//   - schema: Shape every loaded snapshot is normalized against
//   - mirror: Remote mirror, or nil when none is configured
//   - log: Logger instance
//
// Returns an error only when the local database cannot be opened.
func NewGateway(cfg GatewayConfig, schema Schema, mirror Mirror, log logger.Logger) (*Gateway, error) {
	if cfg.DocumentName == "" {
		cfg.DocumentName = "state"
	}
	if cfg.MirrorTimeout == 0 {
		cfg.MirrorTimeout = 15 * time.Second
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(cfg.DBPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketSnapshots)
		return createErr
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after initialization error", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to create snapshots bucket: %w", err)
	}

	log.Info("persistence gateway initialized",
		"db_path", cfg.DBPath,
		"document", cfg.DocumentName,
		"mirror", mirror != nil)

	return &Gateway{
		db:      db,
		mirror:  mirror,
		docName: cfg.DocumentName,
		timeout: cfg.MirrorTimeout,
		schema:  schema,
		log:     log,
	}, nil
}

// Load returns the current snapshot. It never fails outward: the mirror
// is tried first, then the local database, and whatever is found is
// normalized to canonical shape; with nothing readable the canonical
// empty store is returned.
func (g *Gateway) Load(ctx context.Context) Snapshot {
	if g.mirror != nil {
		mctx, cancel := context.WithTimeout(ctx, g.timeout)
		data, err := g.mirror.Read(mctx, g.docName)
		cancel()
		if err == nil && len(data) > 0 {
			g.log.Info("snapshot loaded from mirror", "document", g.docName)
			return NormalizeBytes(data, g.schema)
		}
		if err != nil {
			g.log.Warn("mirror load failed, falling back to local storage", "error", err)
		}
	}

	var data []byte
	err := g.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSnapshots).Get([]byte(g.docName)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		g.log.Warn("local load failed, starting from empty store", "error", err)
		return DefaultSnapshot(g.schema)
	}
	if data == nil {
		return DefaultSnapshot(g.schema)
	}

	return NormalizeBytes(data, g.schema)
}

// Save implements Saver. The local write is synchronous and its error is
// returned for the caller to log; the mirror write is best-effort with a
// bounded timeout, logged and swallowed here.
func (g *Gateway) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	localErr := g.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte(g.docName), data)
	})
	if localErr != nil {
		localErr = fmt.Errorf("failed to write snapshot: %w", localErr)
	}

	if g.mirror != nil {
		mctx, cancel := context.WithTimeout(ctx, g.timeout)
		if mirrorErr := g.mirror.Write(mctx, g.docName, data); mirrorErr != nil {
			g.log.Warn("mirror write failed", "document", g.docName, "error", mirrorErr)
		}
		cancel()
	}

	return localErr
}

// Close closes the local database.
func (g *Gateway) Close() error {
	if err := g.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	g.log.Info("persistence gateway closed")
	return nil
}
