package chunk

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Session is one logical upload being assembled from chunks.
type Session struct {
	UserID     uint64
	Identifier string
	Filename   string
	Mimetype   string
	Total      int64
	Ranges     []Range
	LastChunk  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Received returns the number of bytes recorded across all ranges.
func (s Session) Received() int64 {
	var n int64
	for _, r := range s.Ranges {
		n += r.End - r.Start
	}
	return n
}

func (s *Session) has(start, end int64) bool {
	for _, r := range s.Ranges {
		if r.Start == start && r.End == end {
			return true
		}
	}
	return false
}

// Arena holds the in-flight sessions of this process keyed by user and identifier.
// The chunk files on disk stay the source of truth for reassembly.
type Arena struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewArena(now func() time.Time) *Arena {
	if now == nil {
		now = time.Now
	}
	return &Arena{
		sessions: make(map[string]*Session),
		now:      now,
	}
}

func sessionKey(userID uint64, identifier string) string {
	return strconv.FormatUint(userID, 10) + "_" + identifier
}

// record creates the session on first sight and appends the range.
func (a *Arena) record(p Part) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := sessionKey(p.UserID, p.Identifier)
	now := a.now()
	s, ok := a.sessions[key]
	if !ok {
		s = &Session{
			UserID:     p.UserID,
			Identifier: p.Identifier,
			Total:      p.Total,
			CreatedAt:  now,
		}
		a.sessions[key] = s
	}
	if s.Total != p.Total {
		return ErrTotalMismatch
	}
	if p.Filename != "" {
		s.Filename = p.Filename
	}
	if p.Mimetype != "" {
		s.Mimetype = p.Mimetype
	}
	if !s.has(p.Start, p.End) {
		s.Ranges = append(s.Ranges, Range{Start: p.Start, End: p.End})
	}
	sort.Slice(s.Ranges, func(i, j int) bool { return s.Ranges[i].Start < s.Ranges[j].Start })
	if p.Last {
		s.LastChunk = true
	}
	s.UpdatedAt = now
	return nil
}

// Get returns a copy of the session.
func (a *Arena) Get(userID uint64, identifier string) (Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[sessionKey(userID, identifier)]
	if !ok {
		return Session{}, false
	}
	cp := *s
	cp.Ranges = append([]Range(nil), s.Ranges...)
	return cp, true
}

// Evict drops the session.
func (a *Arena) Evict(userID uint64, identifier string) {
	a.mu.Lock()
	delete(a.sessions, sessionKey(userID, identifier))
	a.mu.Unlock()
}

// Stale returns sessions whose last activity is older than the cutoff.
func (a *Arena) Stale(cutoff time.Time) []Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []Session
	for _, s := range a.sessions {
		if s.UpdatedAt.Before(cutoff) {
			out = append(out, *s)
		}
	}
	return out
}

func (a *Arena) keys() map[string]bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]bool, len(a.sessions))
	for key := range a.sessions {
		out[key] = true
	}
	return out
}

// Len returns the number of live sessions.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}
