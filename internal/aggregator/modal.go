package aggregator

import (
	"sync"
	"time"

	"mentorlink-backend/internal/domain"
	"mentorlink-backend/internal/logger"
)

// Presenter is the UI-facing side of modal presentation. Open receives the
// aggregate that justified opening; Close dismisses whatever is showing.
type Presenter interface {
	Open(state domain.AggregateInvitationState)
	Close()
}

// PromoChecker is the strictly lower-priority signal consulted only when no
// invitation is pending. It runs at most once per install; implementations
// own that bookkeeping.
type PromoChecker interface {
	CheckOnce()
}

type modalState string

const (
	modalClosed modalState = "closed"
	modalOpen   modalState = "open"
)

// ModalController enforces at most one open invitation modal, re-checking
// after each close in case more invitations arrived while it was open.
// Invitations always preempt the promotional check; that ordering is a
// product invariant, not an implementation detail.
type ModalController struct {
	mu          sync.Mutex
	state       modalState
	presenter   Presenter
	promo       PromoChecker
	promoFired  bool
	settleDelay time.Duration
	reconcile   func() // immediate re-reconciliation, wired to Aggregator.ReconcileNow
	settleTimer *time.Timer
	stopped     bool
}

func NewModalController(presenter Presenter, promo PromoChecker, settleDelay time.Duration, reconcile func()) *ModalController {
	if settleDelay <= 0 {
		settleDelay = time.Second
	}
	return &ModalController{
		state:       modalClosed,
		presenter:   presenter,
		promo:       promo,
		settleDelay: settleDelay,
		reconcile:   reconcile,
	}
}

// HandleState consumes an aggregate change. closed→open fires only when
// pending>0 and the controller is currently closed; while open, further
// changes are absorbed (the re-check after close picks them up).
func (c *ModalController) HandleState(state domain.AggregateInvitationState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}

	if state.PendingCount > 0 {
		if c.state == modalClosed {
			c.state = modalOpen
			logger.Debug("opening invitation modal", "pendingCount", state.PendingCount)
			c.presenter.Open(state)
		}
		return
	}

	// Nothing pending. Only now may the lower-priority promotional check
	// run, and only once per install.
	if c.state == modalClosed && !c.promoFired && c.promo != nil {
		c.promoFired = true
		c.promo.CheckOnce()
	}
}

// OnResolved is called when the user accepts or rejects the invitation
// showing in the modal. The modal closes, the backing store gets a short
// settle window to catch up, then a fresh reconciliation decides whether to
// reopen for the next invitation.
func (c *ModalController) OnResolved() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || c.state != modalOpen {
		return
	}
	c.state = modalClosed
	c.presenter.Close()

	if c.settleTimer != nil {
		c.settleTimer.Stop()
	}
	c.settleTimer = time.AfterFunc(c.settleDelay, func() {
		c.mu.Lock()
		stopped := c.stopped
		c.mu.Unlock()
		if !stopped && c.reconcile != nil {
			c.reconcile()
		}
	})
}

// RequestOpen asks for an immediate reconciliation, which opens the modal
// if anything is pending. This is what the opener bus invokes.
func (c *ModalController) RequestOpen() {
	c.mu.Lock()
	stopped := c.stopped
	c.mu.Unlock()
	if !stopped && c.reconcile != nil {
		c.reconcile()
	}
}

// Stop cancels the settle timer and ignores further signals.
func (c *ModalController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
}
