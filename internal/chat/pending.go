package chat

import "sync"

// PendingWrite coalesces rapid commits of a value into one write. Each
// Schedule supersedes the previous one; the caller fires the write later
// with the sequence number it was given, and only the latest survives.
type PendingWrite struct {
	mu      sync.Mutex
	seq     uint64
	value   string
	pending bool
}

// Schedule records v as the value to write and returns its sequence number
func (p *PendingWrite) Schedule(v string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.value = v
	p.pending = true
	return p.seq
}

// Take returns the scheduled value if seq is still the latest schedule and
// it has not been taken or cancelled. A successful Take clears the write.
func (p *PendingWrite) Take(seq uint64) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.pending || seq != p.seq {
		return "", false
	}
	p.pending = false
	return p.value, true
}

// Cancel drops any scheduled write
func (p *PendingWrite) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = false
	p.seq++
}

// Pending reports whether a write is scheduled
func (p *PendingWrite) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}
