// Package aggregator turns four independent realtime invitation sources
// into one debounced pending-count signal and drives modal presentation
// off it.
package aggregator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"mentorlink-backend/internal/domain"
	"mentorlink-backend/internal/logger"
	"mentorlink-backend/internal/realtime"
)

// Watched tables. Names match the store's logical tables; the notify
// triggers publish changes under the same names.
const (
	TableRelationshipInvites = "relationship_invitations"
	TableCollectionInvites   = "collection_invitations"
	TableNotifications       = "notifications"
)

type Config struct {
	// DebounceWindow coalesces event bursts into one reconciliation.
	DebounceWindow time.Duration
	// StrictDedup subtracts notification rows already counted from their
	// backing table. False preserves the legacy raw sum.
	StrictDedup bool
}

// Aggregator owns the subscriptions, the debounce timer and the aggregate
// state. It is a long-lived component with an explicit Start/Stop
// lifecycle; pendingCount is owned exclusively by it and only ever replaced
// by a full reconciliation, never patched.
type Aggregator struct {
	cfg    Config
	source realtime.EventSource
	rec    *Reconciler
	id     Identity

	mu       sync.Mutex
	state    domain.AggregateInvitationState
	onChange func(domain.AggregateInvitationState)
	unsubs   []realtime.Unsubscribe
	started  bool
	// gen guards against stale writes: a reconciliation started before
	// Stop() finds the generation advanced and discards its result.
	gen int

	deb    *Debouncer
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, source realtime.EventSource, rec *Reconciler, id Identity) *Aggregator {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = 200 * time.Millisecond
	}
	return &Aggregator{
		cfg:    cfg,
		source: source,
		rec:    rec,
		id:     id,
	}
}

// OnChange registers the single consumer of aggregate state changes. Must
// be called before Start.
func (a *Aggregator) OnChange(fn func(domain.AggregateInvitationState)) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// State returns the last reconciled aggregate.
func (a *Aggregator) State() domain.AggregateInvitationState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Start runs the initial full reconciliation and subscribes to the four
// sources. Event handlers never touch counts directly; they schedule either
// an immediate or a debounced reconciliation.
func (a *Aggregator) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.deb = NewDebouncer(a.cfg.DebounceWindow, func() { a.reconcileNow() })
	gen := a.gen
	a.mu.Unlock()

	// correctness baseline before any event arrives
	a.runReconciliation(gen)

	if err := a.subscribeAll(); err != nil {
		a.Stop()
		return err
	}

	if rs, ok := a.source.(realtime.Resyncer); ok {
		// reconnects may have lost events; recompute rather than trust the stream
		rs.OnResync(func() { a.ScheduleReconcile() })
	}

	logger.Info("aggregator started", "userID", a.id.UserID, "debounce", a.cfg.DebounceWindow, "strictDedup", a.cfg.StrictDedup)
	return nil
}

// Stop tears down every subscription and cancels pending timers. A
// reconciliation already in flight completes but its result is discarded.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	a.gen++
	unsubs := a.unsubs
	a.unsubs = nil
	deb := a.deb
	cancel := a.cancel
	a.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	if deb != nil {
		deb.Stop()
	}
	if cancel != nil {
		cancel()
	}
	a.wg.Wait()
	logger.Info("aggregator stopped", "userID", a.id.UserID)
}

// ScheduleReconcile requests a debounced reconciliation. This is the only
// way other components may influence the count.
func (a *Aggregator) ScheduleReconcile() {
	a.mu.Lock()
	deb := a.deb
	a.mu.Unlock()
	if deb != nil {
		deb.Trigger()
	}
}

// ReconcileNow bypasses the debounce window; used for the primary,
// time-sensitive signals and by the modal controller's post-close re-check.
func (a *Aggregator) ReconcileNow() {
	a.reconcileNow()
}

func (a *Aggregator) subscribeAll() error {
	subs := []struct {
		table    string
		key      string
		filter   realtime.Filter
		onInsert realtime.EventFunc
		onUpdate realtime.EventFunc
	}{
		{
			// primary, time-sensitive signal: a new pending invite for this
			// user reconciles immediately
			table:  TableRelationshipInvites,
			key:    "invitee=" + a.id.Email,
			filter: a.inviteRowMatches(a.id.Email),
			onInsert: func(ev realtime.Event) {
				if inviteRowPending(ev) {
					a.reconcileNow()
				}
			},
			// accept/reject from another device arrives as an update
			onUpdate: func(realtime.Event) { a.ScheduleReconcile() },
		},
		{
			table:    TableCollectionInvites,
			key:      "invitee=" + a.id.UserID,
			filter:   a.inviteRowMatches(a.id.UserID),
			onInsert: func(ev realtime.Event) {
				if inviteRowPending(ev) {
					a.reconcileNow()
				}
			},
			onUpdate: func(realtime.Event) { a.ScheduleReconcile() },
		},
		{
			table:    TableNotifications,
			key:      "user=" + a.id.UserID,
			filter:   a.notificationRowMatches(),
			onInsert: func(realtime.Event) { a.reconcileNow() },
			onUpdate: func(realtime.Event) { a.ScheduleReconcile() },
		},
	}

	for _, s := range subs {
		unsub, err := a.source.Subscribe(s.table, s.key, s.filter, s.onInsert, s.onUpdate)
		if err != nil {
			return err
		}
		a.mu.Lock()
		a.unsubs = append(a.unsubs, unsub)
		a.mu.Unlock()
	}
	return nil
}

func (a *Aggregator) reconcileNow() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	gen := a.gen
	a.mu.Unlock()
	a.runReconciliation(gen)
}

func (a *Aggregator) runReconciliation(gen int) {
	a.wg.Add(1)
	defer a.wg.Done()

	state, err := a.rec.Reconcile(a.ctx, a.id, a.cfg.StrictDedup)
	if err != nil {
		// degrade to last known count rather than crashing the consumer
		logger.Error("reconciliation failed, keeping last known count", "userID", a.id.UserID, "error", err)
		return
	}

	a.mu.Lock()
	if gen != a.gen {
		// torn down while the queries were in flight; discard
		a.mu.Unlock()
		return
	}
	a.state = state
	fn := a.onChange
	a.mu.Unlock()

	logger.Debug("reconciled aggregate", "userID", a.id.UserID, "pendingCount", state.PendingCount,
		"relTable", state.Sources.RelationshipTable, "relNotes", state.Sources.RelationshipNotifications,
		"colTable", state.Sources.CollectionTable, "colNotes", state.Sources.CollectionNotifications)

	if fn != nil {
		fn(state)
	}
}

type inviteEventRow struct {
	Subject string `json:"subject"`
	Status  string `json:"status"`
}

type notificationEventRow struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
}

func (a *Aggregator) inviteRowMatches(subject string) realtime.Filter {
	return func(ev realtime.Event) bool {
		var row inviteEventRow
		if err := json.Unmarshal(ev.Row, &row); err != nil {
			return false
		}
		return row.Subject == subject
	}
}

func (a *Aggregator) notificationRowMatches() realtime.Filter {
	return func(ev realtime.Event) bool {
		var row notificationEventRow
		if err := json.Unmarshal(ev.Row, &row); err != nil {
			return false
		}
		return row.UserID == a.id.UserID && domain.InvitationNotificationTypes[domain.NotificationType(row.Type)]
	}
}

func inviteRowPending(ev realtime.Event) bool {
	var row inviteEventRow
	if err := json.Unmarshal(ev.Row, &row); err != nil {
		return false
	}
	return domain.InvitationStatus(row.Status) == domain.InvitationStatusPending
}
