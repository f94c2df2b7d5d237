// Package cache mirrors a family's collections in memory. Entries change
// only when the gateway delivers a snapshot; nothing else writes them.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/realtime"
	"github.com/dukerupert/chorely/internal/store"
)

type Subscriber interface {
	SubscribeToCollection(ctx context.Context, p store.Path, fn realtime.Listener) (func(), error)
}

// Family holds the latest snapshot of each collection for one family.
type Family struct {
	mu          sync.RWMutex
	children    map[string]model.Child
	tasks       map[string]model.Task
	rewards     map[string]model.Reward
	redemptions map[string]model.RedeemedReward
	unsubs      []func()
	logger      *slog.Logger
}

// Open subscribes to the family's collections. The initial snapshots are
// applied before Open returns.
func Open(ctx context.Context, sub Subscriber, familyID string, logger *slog.Logger) (*Family, error) {
	f := &Family{
		children:    make(map[string]model.Child),
		tasks:       make(map[string]model.Task),
		rewards:     make(map[string]model.Reward),
		redemptions: make(map[string]model.RedeemedReward),
		logger:      logger,
	}

	paths := []store.Path{
		store.ChildrenPath(familyID),
		store.TasksPath(familyID),
		store.RewardsPath(familyID),
		store.RedemptionsPath(familyID),
	}
	for _, p := range paths {
		unsub, err := sub.SubscribeToCollection(ctx, p, f.apply)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("cache %s: %w", p, err)
		}
		f.unsubs = append(f.unsubs, unsub)
	}
	return f, nil
}

// Close stops receiving snapshots. The cached data stays readable.
func (f *Family) Close() {
	f.mu.Lock()
	unsubs := f.unsubs
	f.unsubs = nil
	f.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

func (f *Family) apply(s realtime.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch docs := s.Docs.(type) {
	case []model.Child:
		f.children = indexBy(docs, func(c model.Child) string { return c.ID })
	case []model.Task:
		f.tasks = indexBy(docs, func(t model.Task) string { return t.ID })
	case []model.Reward:
		f.rewards = indexBy(docs, func(r model.Reward) string { return r.ID })
	case []model.RedeemedReward:
		f.redemptions = indexBy(docs, func(r model.RedeemedReward) string { return r.ID })
	default:
		f.logger.Warn("cache: unexpected snapshot", "collection", s.Collection, "type", fmt.Sprintf("%T", s.Docs))
	}
}

func indexBy[T any](docs []T, key func(T) string) map[string]T {
	m := make(map[string]T, len(docs))
	for _, d := range docs {
		m[key(d)] = d
	}
	return m
}

func (f *Family) Child(id string) (model.Child, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.children[id]
	return c, ok
}

// Children returns the children ordered by name.
func (f *Family) Children() []model.Child {
	f.mu.RLock()
	out := values(f.children)
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Tasks returns the tasks ordered by due date.
func (f *Family) Tasks() []model.Task {
	f.mu.RLock()
	out := values(f.tasks)
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// Rewards returns the rewards ordered by cost.
func (f *Family) Rewards() []model.Reward {
	f.mu.RLock()
	out := values(f.rewards)
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].PointsCost < out[j].PointsCost })
	return out
}

// Redemptions returns stored redemptions, newest first.
func (f *Family) Redemptions() []model.RedeemedReward {
	f.mu.RLock()
	out := values(f.redemptions)
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RedeemedAt.After(out[j].RedeemedAt) })
	return out
}

func values[T any](m map[string]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// Registry opens one Family cache per family on first use and keeps it.
type Registry struct {
	sub      Subscriber
	logger   *slog.Logger
	mu       sync.Mutex
	families map[string]*Family
}

func NewRegistry(sub Subscriber, logger *slog.Logger) *Registry {
	return &Registry{sub: sub, logger: logger, families: make(map[string]*Family)}
}

func (r *Registry) Get(ctx context.Context, familyID string) (*Family, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.families[familyID]; ok {
		return f, nil
	}
	f, err := Open(context.WithoutCancel(ctx), r.sub, familyID, r.logger)
	if err != nil {
		return nil, err
	}
	r.families[familyID] = f
	return f, nil
}

// Close unsubscribes every cached family.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, f := range r.families {
		f.Close()
		delete(r.families, id)
	}
}
