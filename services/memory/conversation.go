package memory

import "github.com/astrodocs/missionqa/models"

// DefaultMaxTurns is the number of retained user+assistant pairs.
const DefaultMaxTurns = 5

// Conversation holds the bounded turn history of a session as a fixed-capacity
// ring buffer. Capacity is 2*maxTurns (one slot per user+assistant pair);
// appending past capacity evicts the oldest turn. Not safe for concurrent use;
// each session owns exactly one instance.
type Conversation struct {
	buf  []models.Turn
	head int
	size int
}

// NewConversation creates a conversation retaining the last maxTurns
// user+assistant pairs. Non-positive maxTurns falls back to DefaultMaxTurns.
func NewConversation(maxTurns int) *Conversation {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Conversation{
		buf: make([]models.Turn, 2*maxTurns),
	}
}

// Append adds one turn at the tail, evicting the oldest turn when full
func (c *Conversation) Append(turn models.Turn) {
	tail := (c.head + c.size) % len(c.buf)
	c.buf[tail] = turn
	if c.size < len(c.buf) {
		c.size++
		return
	}
	// Buffer full: the slot just written replaced the oldest turn.
	c.head = (c.head + 1) % len(c.buf)
}

// Window returns the retained turns in chronological order. The returned
// slice is a copy; mutating it does not affect the conversation.
func (c *Conversation) Window() []models.Turn {
	out := make([]models.Turn, c.size)
	for i := 0; i < c.size; i++ {
		out[i] = c.buf[(c.head+i)%len(c.buf)]
	}
	return out
}

// Reset clears all turns
func (c *Conversation) Reset() {
	c.head = 0
	c.size = 0
}

// Len returns the number of retained turns
func (c *Conversation) Len() int {
	return c.size
}
