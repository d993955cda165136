package httpapi

import (
	"net/http"
	"strings"
	"sync/atomic"
)

// locker gates protected routes with HTTP 423 (Locked) while the bus
// has no signal: polling a store that the arbitration loop has never
// synced against returns meaningless empty data, so it is better to
// say so than to serve it.
type locker struct {
	locked       int32 // atomic bool
	doNotProtect []string
}

// newLocker returns a locker starting in the locked state; routes
// whose path contains one of doNotProtect are never gated.
func newLocker(doNotProtect ...string) *locker {
	return &locker{locked: 1, doNotProtect: doNotProtect}
}

func (l *locker) setLocked(locked bool) {
	v := int32(0)
	if locked {
		v = 1
	}
	atomic.StoreInt32(&l.locked, v)
}

func (l *locker) Locked() bool {
	return atomic.LoadInt32(&l.locked) == 1
}

// check wraps next, returning 423 for protected routes while locked.
func (l *locker) check(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if l.Locked() {
			for _, p := range l.doNotProtect {
				if strings.Contains(r.URL.Path, p) {
					next(w, r)
					return
				}
			}
			http.Error(w, "bus not yet synced", http.StatusLocked)
			return
		}
		next(w, r)
	}
}
