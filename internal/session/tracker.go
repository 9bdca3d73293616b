package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// noticeTTL is how long a "player left" notice stays active.
const noticeTTL = 5 * time.Second

// Notice is one transient "player left" notification entry.
type Notice struct {
	ID         string
	PlayerName string
	Timestamp  time.Time
}

// Tracker derives "player left" notices from diffs of the replicated
// disconnected-player roster. Each departed name is noticed exactly once
// per client no matter how many pushes repeat it, and every notice expires
// on its own timer.
type Tracker struct {
	clock   clockwork.Clock
	expired func(id string)

	mu      sync.Mutex
	seen    map[string]struct{}
	notices []Notice
}

// NewTracker creates a tracker. expired is invoked (on a timer goroutine)
// when a notice leaves the active window; it may be nil.
func NewTracker(clock clockwork.Clock, expired func(id string)) *Tracker {
	return &Tracker{
		clock:   clock,
		expired: expired,
		seen:    make(map[string]struct{}),
	}
}

// Observe diffs the remote roster against the names already seen and
// returns notices for the newly departed. The observing player's own name
// never produces a notice.
func (t *Tracker) Observe(disconnected []string, self string) []Notice {
	t.mu.Lock()
	defer t.mu.Unlock()

	var added []Notice
	for _, name := range disconnected {
		if name == self {
			continue
		}
		if _, ok := t.seen[name]; ok {
			continue
		}
		t.seen[name] = struct{}{}

		notice := Notice{
			ID:         uuid.New().String(),
			PlayerName: name,
			Timestamp:  t.clock.Now(),
		}
		t.notices = append(t.notices, notice)
		added = append(added, notice)

		id := notice.ID
		t.clock.AfterFunc(noticeTTL, func() {
			t.expire(id)
		})
	}
	return added
}

// Active returns the notices still inside their display window.
func (t *Tracker) Active() []Notice {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Notice(nil), t.notices...)
}

// Reset drops all state, ready for a new room.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen = make(map[string]struct{})
	t.notices = nil
}

func (t *Tracker) expire(id string) {
	t.mu.Lock()
	kept := t.notices[:0]
	found := false
	for _, n := range t.notices {
		if n.ID == id {
			found = true
			continue
		}
		kept = append(kept, n)
	}
	t.notices = kept
	t.mu.Unlock()

	if found && t.expired != nil {
		t.expired(id)
	}
}
