package tgc

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// SpaceToTapeGcMap is a thread-safe registry of one TapeGc per EOS space,
// mirroring the original SpaceToTapeGcMap.
type SpaceToTapeGcMap struct {
	mu     sync.RWMutex
	spaces map[string]*TapeGc
}

// NewSpaceToTapeGcMap returns an empty map.
func NewSpaceToTapeGcMap() *SpaceToTapeGcMap {
	return &SpaceToTapeGcMap{spaces: make(map[string]*TapeGc)}
}

// CreateGc registers gc under space, failing with ErrGcAlreadyExists if one
// is already registered.
func (m *SpaceToTapeGcMap) CreateGc(space string, gc *TapeGc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.spaces[space]; ok {
		return ErrGcAlreadyExists
	}
	m.spaces[space] = gc
	return nil
}

// GetGc returns the TapeGc registered for space, or ErrUnknownSpace.
func (m *SpaceToTapeGcMap) GetGc(space string) (*TapeGc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gc, ok := m.spaces[space]
	if !ok {
		return nil, ErrUnknownSpace
	}
	return gc, nil
}

// GetSpaces returns the set of registered space names, sorted for
// deterministic iteration.
func (m *SpaceToTapeGcMap) GetSpaces() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	spaces := make([]string, 0, len(m.spaces))
	for space := range m.spaces {
		spaces = append(spaces, space)
	}
	sort.Strings(spaces)
	return spaces
}

// GetStats returns a snapshot of every registered space's TapeGcStats.
func (m *SpaceToTapeGcMap) GetStats() (map[string]TapeGcStats, error) {
	m.mu.RLock()
	spaces := make(map[string]*TapeGc, len(m.spaces))
	for space, gc := range m.spaces {
		spaces[space] = gc
	}
	m.mu.RUnlock()

	result := make(map[string]TapeGcStats, len(spaces))
	for space, gc := range spaces {
		stats, err := gc.Stats()
		if err != nil {
			return nil, fmt.Errorf("space %s: %w", space, err)
		}
		result[space] = stats
	}
	return result, nil
}

// StartGcWorkerThreads starts the worker goroutine of every registered gc.
func (m *SpaceToTapeGcMap) StartGcWorkerThreads() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, gc := range m.spaces {
		gc.StartWorkerThread()
	}
}

// DestroyAllGc stops every registered gc's worker thread and empties the
// map.
func (m *SpaceToTapeGcMap) DestroyAllGc() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, gc := range m.spaces {
		gc.Stop()
	}
	m.spaces = make(map[string]*TapeGc)
}

// WriteJSON streams a JSON array of per-space gc status objects to w,
// returning ErrMaxLenExceeded if maxLen is nonzero and exceeded.
func (m *SpaceToTapeGcMap) WriteJSON(w io.Writer, maxLen uint64) error {
	cw := &countingWriter{w: w, maxLen: maxLen}

	if err := writeString(cw, "["); err != nil {
		return err
	}

	for i, space := range m.GetSpaces() {
		if i > 0 {
			if err := writeString(cw, ","); err != nil {
				return err
			}
		}
		gc, err := m.GetGc(space)
		if err != nil {
			return err
		}
		if err := gc.WriteJSON(cw, 0); err != nil {
			return err
		}
	}

	return writeString(cw, "]")
}
