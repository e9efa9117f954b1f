// Package mongodb implements a MongoDB storage.Repository. Each row becomes
// one document keyed by the canonical field names; Null cells are stored as
// BSON null. Collections need no DDL, so no dialect is registered.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"samfdw/internal/storage"
)

// Kind is the storage.kind this package registers.
const Kind = "mongodb"

// ErrNoStatements is returned by Exec; MongoDB takes no SQL.
var ErrNoStatements = errors.New("mongodb: statements are not supported")

func init() {
	storage.Register(Kind, func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := NewRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}

// Repository writes rows into one collection.
type Repository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewRepository connects to cfg.DSN (a mongodb:// URI) and targets the
// collection named by cfg.Table as "database.collection".
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	db, coll, err := splitNamespace(cfg.Table)
	if err != nil {
		return nil, err
	}
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}
	return &Repository{client: client, coll: client.Database(db).Collection(coll)}, nil
}

// CopyFrom inserts rows as documents with InsertMany.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	docs, err := toDocuments(columns, rows)
	if err != nil {
		return 0, err
	}
	res, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("mongodb: insertMany: %w", err)
	}
	return int64(len(res.InsertedIDs)), nil
}

// Exec accepts only blank input.
func (r *Repository) Exec(_ context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	return ErrNoStatements
}

// Close disconnects the client.
func (r *Repository) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = r.client.Disconnect(ctx)
}

func toDocuments(columns []string, rows [][]any) ([]any, error) {
	docs := make([]any, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("mongodb: row %d length %d != columns length %d", i, len(row), len(columns))
		}
		doc := make(bson.D, len(columns))
		for j, c := range columns {
			doc[j] = bson.E{Key: c, Value: row[j]}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// splitNamespace splits "db.collection"; the collection may itself contain dots.
func splitNamespace(ns string) (db, coll string, err error) {
	db, coll, ok := strings.Cut(strings.TrimSpace(ns), ".")
	if !ok || db == "" || coll == "" {
		return "", "", fmt.Errorf("mongodb: table %q must be database.collection", ns)
	}
	return db, coll, nil
}
