package clip

import "sync"

// Memory is an in-process clipboard. It backs headless environments and
// tests: Set replaces the content and advances the change counter exactly
// like another application copying would.
type Memory struct {
	name string

	mu    sync.RWMutex
	count int64
	reps  map[Kind][]byte
	order []Kind
}

// NewMemory returns an empty in-memory clipboard.
func NewMemory(name string) *Memory {
	if name == "" {
		name = "memory"
	}
	return &Memory{name: name, reps: make(map[Kind][]byte)}
}

// Rep is one representation placed by Set.
type Rep struct {
	Kind Kind
	Data []byte
}

// Set replaces the clipboard content with reps and bumps the counter.
func (m *Memory) Set(reps ...Rep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reps = make(map[Kind][]byte, len(reps))
	m.order = m.order[:0]
	for _, r := range reps {
		data := make([]byte, len(r.Data))
		copy(data, r.Data)
		if _, dup := m.reps[r.Kind]; !dup {
			m.order = append(m.order, r.Kind)
		}
		m.reps[r.Kind] = data
	}
	m.count++
}

// SetText is shorthand for Set with a single text representation.
func (m *Memory) SetText(s string) { m.Set(Rep{Kind: KindText, Data: []byte(s)}) }

// Name implements Source.
func (m *Memory) Name() string { return m.name }

// ChangeCount implements Source.
func (m *Memory) ChangeCount() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

// Kinds implements Source.
func (m *Memory) Kinds() []Kind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Kind, len(m.order))
	copy(out, m.order)
	return out
}

// Read implements Source.
func (m *Memory) Read(kind Kind) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.reps[kind]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Close implements Source.
func (m *Memory) Close() {}
