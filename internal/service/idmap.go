package service

import "github.com/sma-timetable/scheduler-api/internal/engine"

// idMap assigns a stable, deterministic engine.ID to every persistence UUID
// it sees, and recovers the UUID on the way back out. IDs are assigned in
// insertion order per run, so the same snapshot always maps the same way
// and the engine's determinism contract is not broken by map-iteration
// order.
type idMap struct {
	toID   map[string]engine.ID
	toUUID map[engine.ID]string
	next   engine.ID
}

func newIDMap() *idMap {
	return &idMap{
		toID:   make(map[string]engine.ID),
		toUUID: make(map[engine.ID]string),
		next:   1,
	}
}

// id returns the engine.ID for uuid, assigning a new one on first sight.
func (m *idMap) id(uuid string) engine.ID {
	if uuid == "" {
		return 0
	}
	if id, ok := m.toID[uuid]; ok {
		return id
	}
	id := m.next
	m.next++
	m.toID[uuid] = id
	m.toUUID[id] = uuid
	return id
}

// uuid recovers the persistence UUID for an engine.ID minted by this map.
func (m *idMap) uuid(id engine.ID) (string, bool) {
	u, ok := m.toUUID[id]
	return u, ok
}
