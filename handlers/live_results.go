// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/danielhkuo/pollcast/cache"
	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/logger"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/realtime"
	"github.com/danielhkuo/pollcast/tally"
	"golang.org/x/sync/singleflight"
)

// LiveResults serves aggregates for open polls. Results are cached per poll
// for the configured TTL, concurrent misses aggregate once, and every write
// invalidates the entry and pushes fresh results to websocket subscribers.
//
// Each poll has a generation that Invalidate bumps. An aggregate is cached or
// pushed only if no invalidation happened since it started loading.
type LiveResults struct {
	db    *sql.DB
	ttl   time.Duration
	cache *cache.Cache[models.ResultSnapshot]
	group singleflight.Group
	hub   *realtime.Hub

	mu     sync.Mutex
	gens   map[string]uint64
	closed map[string]bool

	// load reads the responses an aggregate is built from.
	load func(ctx context.Context, q queryer, pollID string) ([]models.Response, error)
}

func NewLiveResults(db *sql.DB, cfg cliparse.Config, hub *realtime.Hub) *LiveResults {
	return &LiveResults{
		db:     db,
		ttl:    cfg.ResultsCacheTTL,
		cache:  cache.New[models.ResultSnapshot](cache.DefaultCleanupInterval),
		hub:    hub,
		gens:   make(map[string]uint64),
		closed: make(map[string]bool),
		load:   loadResponses,
	}
}

// Hub returns the subscriber hub results are pushed to.
func (l *LiveResults) Hub() *realtime.Hub {
	return l.hub
}

// Close stops the cache janitor and disconnects subscribers.
func (l *LiveResults) Close() {
	l.cache.Close()
	l.hub.Shutdown()
}

// Compute aggregates the stored responses of poll without touching the cache.
func (l *LiveResults) Compute(ctx context.Context, q queryer, poll models.Poll) (models.ResultSnapshot, error) {
	responses, err := l.load(ctx, q, poll.ID)
	if err != nil {
		return models.ResultSnapshot{}, err
	}

	return models.ResultSnapshot{
		PollID:     poll.ID,
		ComputedAt: time.Now().UTC(),
		Result:     tally.Aggregate(poll, responses),
	}, nil
}

func (l *LiveResults) generation(pollID string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[pollID]
}

// storeIfCurrent caches snap unless poll was invalidated after gen was read.
// The caller holds l.mu.
func (l *LiveResults) storeIfCurrent(pollID string, gen uint64, snap models.ResultSnapshot) bool {
	if l.gens[pollID] != gen || l.closed[pollID] {
		return false
	}
	if l.ttl > 0 {
		l.cache.Set(pollID, snap, l.ttl)
	}
	return true
}

// Get returns cached results for poll, aggregating on a miss. The shared
// aggregation runs detached from ctx so one cancelled caller does not fail
// the others.
func (l *LiveResults) Get(ctx context.Context, poll models.Poll) (models.ResultSnapshot, error) {
	if snap, ok := l.cache.Get(poll.ID); ok {
		return snap, nil
	}

	v, err, _ := l.group.Do(poll.ID, func() (interface{}, error) {
		gen := l.generation(poll.ID)
		snap, err := l.Compute(context.WithoutCancel(ctx), l.db, poll)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.storeIfCurrent(poll.ID, gen, snap)
		l.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return models.ResultSnapshot{}, err
	}

	return v.(models.ResultSnapshot), nil
}

// Invalidate drops the cached results of a poll and detaches later readers
// from any aggregation already in flight. It returns the new generation.
func (l *LiveResults) Invalidate(pollID string) uint64 {
	l.mu.Lock()
	l.gens[pollID]++
	gen := l.gens[pollID]
	l.cache.Delete(pollID)
	l.mu.Unlock()

	l.group.Forget(pollID)
	return gen
}

// Subscribe registers s for pushes on poll and hands it the current results.
// The initial frame is skipped when a newer push is already on its way.
func (l *LiveResults) Subscribe(ctx context.Context, poll models.Poll, s realtime.Subscriber) error {
	l.hub.Subscribe(poll.ID, s)
	gen := l.generation(poll.ID)

	snap, err := l.Get(ctx, poll)
	if err != nil {
		l.hub.Unsubscribe(poll.ID, s)
		return err
	}

	data, err := json.Marshal(realtime.NewMessage(realtime.MsgResults, poll.ID, snap.Result))
	if err != nil {
		l.hub.Unsubscribe(poll.ID, s)
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gens[poll.ID] == gen {
		s.Deliver(data)
	}
	return nil
}

// Publish invalidates poll's cached results and, when anyone is watching a
// live poll, pushes a fresh aggregate. A push overtaken by a later write is
// dropped; that write publishes its own.
func (l *LiveResults) Publish(ctx context.Context, poll models.Poll) {
	gen := l.Invalidate(poll.ID)

	if poll.ResultsVisibility != models.VisibilityLive || l.hub.Count(poll.ID) == 0 {
		return
	}

	log := logger.New().With("poll_id", poll.ID)

	snap, err := l.Compute(context.WithoutCancel(ctx), l.db, poll)
	if err != nil {
		log.WithError(err).Warn("failed to compute live results")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.storeIfCurrent(poll.ID, gen, snap) {
		log.Debug("live results superseded")
		return
	}

	n, err := l.hub.Broadcast(poll.ID, realtime.NewMessage(realtime.MsgResults, poll.ID, snap.Result))
	if err != nil {
		log.WithError(err).Warn("failed to broadcast live results")
		return
	}
	log.WithField("subscribers", n).Debug("live results pushed")
}

// PublishClosed tells subscribers a poll closed and hands them the final
// snapshot. No live push for the poll goes out after it.
func (l *LiveResults) PublishClosed(snapshot models.ResultSnapshot) {
	l.Invalidate(snapshot.PollID)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed[snapshot.PollID] = true

	if _, err := l.hub.Broadcast(snapshot.PollID, realtime.NewMessage(realtime.MsgClosed, snapshot.PollID, snapshot)); err != nil {
		logger.New().With("poll_id", snapshot.PollID).WithError(err).Warn("failed to broadcast close")
	}
}
