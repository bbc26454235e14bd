package service

import (
	"context"
	"time"

	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/logging"
)

// ExpireIdleSessions closes every session idle for longer than the manager
// TTL and returns how many were dropped.
func (m *Manager) ExpireIdleSessions(now time.Time) int {
	ids := m.idleSince(now.Add(-m.ttl))
	n := 0
	for _, id := range ids {
		if m.Remove(id) {
			n++
			logging.Info("session expired due to inactivity", logging.Fields{constants.LogFieldSessionID: id})
		}
	}
	return n
}

// StartSweeper periodically expires idle sessions until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.ExpireIdleSessions(m.opts.Now()); n > 0 {
					logging.Info("session sweeper pass", logging.Fields{"expired": n, "active": m.Len()})
				}
			}
		}
	}()
}
