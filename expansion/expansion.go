// Package expansion implements [unspool.ExpansionStore] in two variants:
// [Store], where every block toggles independently, and [Exclusive], where
// at most one block system-wide is open at a time.
package expansion

import (
	"sync/atomic"

	"github.com/fwojciec/unspool"
)

// Interface compliance checks.
var (
	_ unspool.ExpansionStore = (*Store)(nil)
	_ unspool.ExpansionStore = (*Exclusive)(nil)
)

// Store tracks expansion independently per block. Absent entries are
// collapsed. Store is not safe for concurrent use.
type Store struct {
	entries map[unspool.BlockKey]unspool.Expansion
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[unspool.BlockKey]unspool.Expansion)}
}

// Toggle flips a block between collapsed and expanded. A block shown in the
// panel toggles back to collapsed.
func (s *Store) Toggle(key unspool.BlockKey) unspool.Expansion {
	next := unspool.Expanded
	if s.entries[key].Open() {
		next = unspool.Collapsed
	}
	s.set(key, next)
	return next
}

// OpenPanel moves a block to the side panel, or collapses it if it is
// already there.
func (s *Store) OpenPanel(key unspool.BlockKey) unspool.Expansion {
	next := unspool.Panel
	if s.entries[key] == unspool.Panel {
		next = unspool.Collapsed
	}
	s.set(key, next)
	return next
}

func (s *Store) set(key unspool.BlockKey, e unspool.Expansion) {
	if e == unspool.Collapsed {
		delete(s.entries, key)
		return
	}
	s.entries[key] = e
}

// State returns the block's expansion state.
func (s *Store) State(key unspool.BlockKey) unspool.Expansion {
	return s.entries[key]
}

// IsExpanded reports whether the block is expanded inline.
func (s *Store) IsExpanded(key unspool.BlockKey) bool {
	return s.entries[key] == unspool.Expanded
}

// Reset drops every entry belonging to messageID.
func (s *Store) Reset(messageID string) {
	for k := range s.entries {
		if k.MessageID == messageID {
			delete(s.entries, k)
		}
	}
}

// Clear drops all entries.
func (s *Store) Clear() {
	clear(s.entries)
}

// Len returns the number of blocks not in the default collapsed state.
func (s *Store) Len() int {
	return len(s.entries)
}

// selection is the single open block of an Exclusive store. A nil
// selection means nothing is open.
type selection struct {
	key   unspool.BlockKey
	state unspool.Expansion
}

// Exclusive allows at most one open block at a time. The open block is one
// owned value replaced by compare-and-swap, so every transition is atomic
// and no intermediate state with two open blocks is observable.
type Exclusive struct {
	current atomic.Pointer[selection]
}

// NewExclusive creates an Exclusive store with nothing open.
func NewExclusive() *Exclusive {
	return &Exclusive{}
}

// Toggle expands key, implicitly collapsing whichever block was open.
// Toggling the open block collapses it and leaves nothing open.
func (e *Exclusive) Toggle(key unspool.BlockKey) unspool.Expansion {
	return e.swap(key, unspool.Expanded)
}

// OpenPanel shows key in the side panel, replacing any open block.
// Opening the block already in the panel closes it.
func (e *Exclusive) OpenPanel(key unspool.BlockKey) unspool.Expansion {
	return e.swap(key, unspool.Panel)
}

func (e *Exclusive) swap(key unspool.BlockKey, want unspool.Expansion) unspool.Expansion {
	for {
		old := e.current.Load()
		var next *selection
		result := unspool.Collapsed
		if old == nil || old.key != key || (want == unspool.Panel && old.state != unspool.Panel) {
			next = &selection{key: key, state: want}
			result = want
		}
		if e.current.CompareAndSwap(old, next) {
			return result
		}
	}
}

// State returns the block's expansion state.
func (e *Exclusive) State(key unspool.BlockKey) unspool.Expansion {
	if cur := e.current.Load(); cur != nil && cur.key == key {
		return cur.state
	}
	return unspool.Collapsed
}

// IsExpanded reports whether the block is expanded inline.
func (e *Exclusive) IsExpanded(key unspool.BlockKey) bool {
	return e.State(key) == unspool.Expanded
}

// Current returns the open block, if any.
func (e *Exclusive) Current() (unspool.BlockKey, unspool.Expansion, bool) {
	cur := e.current.Load()
	if cur == nil {
		return unspool.BlockKey{}, unspool.Collapsed, false
	}
	return cur.key, cur.state, true
}

// Reset closes the open block if it belongs to messageID.
func (e *Exclusive) Reset(messageID string) {
	for {
		old := e.current.Load()
		if old == nil || old.key.MessageID != messageID {
			return
		}
		if e.current.CompareAndSwap(old, nil) {
			return
		}
	}
}

// Clear closes the open block.
func (e *Exclusive) Clear() {
	e.current.Store(nil)
}
