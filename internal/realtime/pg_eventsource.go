package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"mentorlink-backend/internal/logger"

	"github.com/lib/pq"
)

// NotifyChannel is the single LISTEN/NOTIFY channel the store publishes row
// changes on. Triggers on each watched table emit a JSON Event as payload.
const NotifyChannel = "mentorlink_changes"

var _ EventSource = &PGEventSource{}

// PGEventSource delivers row changes from Postgres LISTEN/NOTIFY. One
// listener connection fans out to all subscriptions through the in-memory
// bus. A reconnect fires the resync hooks, since notifications sent while
// the connection was down are gone.
type PGEventSource struct {
	bus        *bus
	connectDSN string
}

func NewPGEventSource(connectDSN string) *PGEventSource {
	return &PGEventSource{
		bus:        newBus(),
		connectDSN: connectDSN,
	}
}

func (p *PGEventSource) Subscribe(table, filterKey string, filter Filter, onInsert, onUpdate EventFunc) (Unsubscribe, error) {
	return p.bus.subscribe(table, filterKey, filter, onInsert, onUpdate), nil
}

func (p *PGEventSource) OnResync(fn func()) {
	p.bus.onResync(fn)
}

// Start runs the background listener until ctx is cancelled.
func (p *PGEventSource) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		listener := pq.NewListener(p.connectDSN, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Warn("pq listener event error", "error", err)
			}
			switch ev {
			case pq.ListenerEventReconnected:
				// anything sent during the outage is lost; force a recompute
				p.bus.fireResync()
			}
		})
		defer listener.Close()

		if err := listener.Listen(NotifyChannel); err != nil {
			logger.Error("failed to listen on notify channel", "channel", NotifyChannel, "error", err)
			return
		}
		logger.Info("realtime listener started", "channel", NotifyChannel)

		for {
			exit, err := p.waitForNotification(ctx, listener)
			if err != nil {
				logger.Error("error waiting for notification", "error", err)
				time.Sleep(time.Second)
			}
			if exit {
				return
			}
		}
	}()
}

func (p *PGEventSource) waitForNotification(ctx context.Context, l *pq.Listener) (exit bool, err error) {
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case n := <-l.Notify:
			if n == nil {
				// notify channel closed, likely a dropped db connection
				return false, ErrListenerClosed
			}
			var ev Event
			if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
				logger.Warn("discarding malformed notify payload", "channel", n.Channel, "error", err)
				return false, nil
			}
			p.bus.dispatch(ev)
			return false, nil
		case <-time.After(90 * time.Second):
			// quiet for a while; make sure the connection is still alive
			logger.Debug("no notifications for 90s, pinging listener")
			if err := l.Ping(); err != nil {
				return false, err
			}
		}
	}
}
