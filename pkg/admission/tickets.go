package admission

import "sync"

// TicketRegistry correlates an inbound link with the user's later mode choice.
// Tickets are consumed exactly once; unconsumed tickets persist for the
// process lifetime (the identifier space is bounded by recent message volume).
type TicketRegistry interface {
	// Store saves the URL under the ticket id, replacing any previous entry.
	Store(ticketID, url string)

	// Take removes and returns the URL atomically with the read.
	// Returns ErrTicketNotFound if the ticket is missing or already consumed.
	Take(ticketID string) (string, error)

	// Len returns the number of unconsumed tickets.
	Len() int
}

// MemoryTickets implements TicketRegistry with an in-process map.
type MemoryTickets struct {
	mu      sync.Mutex
	pending map[string]string
}

// NewMemoryTickets creates an empty registry.
func NewMemoryTickets() *MemoryTickets {
	return &MemoryTickets{pending: make(map[string]string)}
}

// Store implements TicketRegistry.
func (t *MemoryTickets) Store(ticketID, url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[ticketID] = url
}

// Take implements TicketRegistry. Concurrent duplicate presses of the same
// button observe at-most-once consumption.
func (t *MemoryTickets) Take(ticketID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	url, ok := t.pending[ticketID]
	if !ok {
		return "", ErrTicketNotFound
	}
	delete(t.pending, ticketID)
	return url, nil
}

// Len implements TicketRegistry.
func (t *MemoryTickets) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
