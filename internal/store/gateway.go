package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/realtime"
)

// Gateway is the document-style persistence boundary: point reads, atomic
// multi-record writes, and collection subscriptions backed by SQLite.
type Gateway struct {
	db     *sql.DB
	hub    *realtime.Hub
	logger *slog.Logger

	// Serializes snapshot loads so a subscriber never sees an older snapshot
	// after a newer one.
	pubMu sync.Mutex
}

func NewGateway(db *sql.DB, hub *realtime.Hub, logger *slog.Logger) *Gateway {
	return &Gateway{db: db, hub: hub, logger: logger}
}

// WriteAtomic applies every op in a single transaction. Either all ops
// commit or none do. After commit each touched collection is reloaded and
// published to its subscribers.
func (g *Gateway) WriteAtomic(ctx context.Context, ops ...WriteOp) error {
	if len(ops) == 0 {
		return nil
	}

	touched := newPathSet()
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return &model.PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	for _, op := range ops {
		if err := op.apply(ctx, tx, touched.add); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return &model.PersistenceError{Op: "commit", Err: err}
	}

	g.publish(context.WithoutCancel(ctx), touched.paths)
	return nil
}

func (g *Gateway) publish(ctx context.Context, paths []Path) {
	if g.hub == nil {
		return
	}

	g.pubMu.Lock()
	defer g.pubMu.Unlock()

	for _, p := range paths {
		key := p.String()
		if !g.hub.HasSubscribers(key) {
			continue
		}
		docs, err := g.load(ctx, p)
		if err != nil {
			g.logger.Error("load snapshot", "collection", key, "error", err)
			continue
		}
		g.hub.Publish(realtime.NewSnapshot(key, docs))
	}
}

// SubscribeToCollection delivers the current contents of the collection to
// fn immediately and again after every commit that touches it. Call the
// returned func to stop.
func (g *Gateway) SubscribeToCollection(ctx context.Context, p Path, fn realtime.Listener) (func(), error) {
	if g.hub == nil {
		return nil, fmt.Errorf("subscribe %s: no hub configured", p)
	}

	g.pubMu.Lock()
	defer g.pubMu.Unlock()

	docs, err := g.load(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", p, err)
	}
	fn(realtime.NewSnapshot(p.String(), docs))
	return g.hub.Subscribe(p.String(), fn), nil
}

// load reads the full contents of a collection. Empty collections are
// returned as empty slices so they encode as [].
func (g *Gateway) load(ctx context.Context, p Path) (any, error) {
	switch p.Collection {
	case Children:
		return nonNil(g.ListChildren(ctx, p.FamilyID))
	case Tasks:
		return nonNil(g.ListTasks(ctx, TaskFilter{FamilyID: p.FamilyID, ChildID: p.ChildID}))
	case Rewards:
		return nonNil(g.ListRewards(ctx, p.FamilyID, false))
	case RedeemedRewards:
		return nonNil(g.ListRedemptions(ctx, RedemptionFilter{FamilyID: p.FamilyID}))
	case Notifications:
		return nonNil(g.ListNotifications(ctx, p.FamilyID))
	}
	return nil, fmt.Errorf("unknown collection %q", p.Collection)
}

func nonNil[T any](docs []T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []T{}
	}
	return docs, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface{ Scan(...any) error }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
