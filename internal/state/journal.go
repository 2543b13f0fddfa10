package state

import "time"

// journalCapacity bounds the status history kept for display consumers.
const journalCapacity = 20

// JournalEntry is one timestamped status line.
type JournalEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// journal is a fixed-capacity ring: once full, appending evicts the
// oldest entry. Not safe for concurrent use on its own; the Store's
// mutex guards it.
type journal struct {
	buf   []JournalEntry
	start int
	count int
}

func newJournal(capacity int) *journal {
	return &journal{buf: make([]JournalEntry, capacity)}
}

func (j *journal) append(text string) {
	entry := JournalEntry{Timestamp: time.Now(), Text: text}
	if j.count < len(j.buf) {
		j.buf[(j.start+j.count)%len(j.buf)] = entry
		j.count++
		return
	}
	// Full: overwrite the oldest slot and advance the start.
	j.buf[j.start] = entry
	j.start = (j.start + 1) % len(j.buf)
}

// entries returns the journal oldest-first as a fresh slice.
func (j *journal) entries() []JournalEntry {
	out := make([]JournalEntry, j.count)
	for i := 0; i < j.count; i++ {
		out[i] = j.buf[(j.start+i)%len(j.buf)]
	}
	return out
}
