package persona

import (
	"fmt"
	"sync/atomic"
)

// Snapshot is an immutable view of the persona the agent is playing. Runtime
// reconfiguration replaces the whole snapshot; readers never observe a
// backstory from one persona paired with topics from another.
type Snapshot struct {
	Backstory string
	Topics    []string
}

func (s *Snapshot) Validate() error {
	if s.Backstory == "" {
		return fmt.Errorf("persona backstory is empty")
	}
	return nil
}

// Holder is the shared single-writer multi-reader persona slot. Lives only in
// memory: a restart reverts to the configured persona.
type Holder struct {
	cur atomic.Pointer[Snapshot]
}

func NewHolder(snap Snapshot) *Holder {
	h := &Holder{}
	h.cur.Store(&snap)
	return h
}

func (h *Holder) Load() *Snapshot {
	return h.cur.Load()
}

func (h *Holder) Swap(snap Snapshot) {
	h.cur.Store(&snap)
}
