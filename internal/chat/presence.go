package chat

import (
	"sync"
	"time"
)

const (
	// onlineTTL is how long a presence ping keeps a user online.
	onlineTTL = 45 * time.Second
	// typingTTL is how long a typing ping keeps the indicator on.
	typingTTL = 5 * time.Second
	// maxRooms bounds the map; pings for new rooms beyond the bound are
	// dropped after a sweep fails to free space.
	maxRooms = 10000
)

// Presence tracks online and typing users per team chat room. State is
// process-local and ephemeral: it lives as long as the process and is
// acceptable to lose on restart. Expiry is lazy; reads and writes sweep
// the entries they touch.
type Presence struct {
	mu    sync.RWMutex
	rooms map[string]*room

	now func() time.Time
}

type room struct {
	online map[string]time.Time
	typing map[string]time.Time
}

func NewPresence() *Presence {
	return &Presence{
		rooms: make(map[string]*room),
		now:   time.Now,
	}
}

// Ping marks the user online in the room until the TTL lapses.
func (p *Presence) Ping(roomID, userID string) {
	p.touch(roomID, userID, false)
}

// Typing marks the user as typing; it implies online.
func (p *Presence) Typing(roomID, userID string) {
	p.touch(roomID, userID, true)
}

func (p *Presence) touch(roomID, userID string, typing bool) {
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	rm := p.rooms[roomID]
	if rm == nil {
		if len(p.rooms) >= maxRooms {
			p.sweepLocked(now)
		}
		if len(p.rooms) >= maxRooms {
			return
		}
		rm = &room{
			online: make(map[string]time.Time),
			typing: make(map[string]time.Time),
		}
		p.rooms[roomID] = rm
	}

	rm.online[userID] = now.Add(onlineTTL)
	if typing {
		rm.typing[userID] = now.Add(typingTTL)
	}
}

// Snapshot returns the users currently online and typing in the room,
// expiring stale entries as it reads.
func (p *Presence) Snapshot(roomID string) (online, typing []string) {
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	rm := p.rooms[roomID]
	if rm == nil {
		return []string{}, []string{}
	}

	online = expire(rm.online, now)
	typing = expire(rm.typing, now)
	if len(rm.online) == 0 {
		delete(p.rooms, roomID)
	}
	return online, typing
}

// expire drops lapsed entries and returns the survivors.
func expire(entries map[string]time.Time, now time.Time) []string {
	alive := make([]string, 0, len(entries))
	for user, deadline := range entries {
		if now.After(deadline) {
			delete(entries, user)
			continue
		}
		alive = append(alive, user)
	}
	return alive
}

// sweepLocked drops rooms whose every entry has lapsed. Caller holds
// the write lock.
func (p *Presence) sweepLocked(now time.Time) {
	for id, rm := range p.rooms {
		expire(rm.online, now)
		expire(rm.typing, now)
		if len(rm.online) == 0 && len(rm.typing) == 0 {
			delete(p.rooms, id)
		}
	}
}
