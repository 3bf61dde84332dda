package cachesim

import (
	"fmt"

	"github.com/sarchlab/fdprefetch/sim"
)

// MSHREntry is an in-flight fill of a near-cache line.
type MSHREntry struct {
	Address    uint64
	IsPrefetch bool

	// Demands holds the issue times of the demand accesses waiting for the
	// line.
	Demands []sim.VTimeInCycle
}

// MSHR records the near cache's requests to the far levels.
type MSHR struct {
	Capacity int
	Entries  []MSHREntry
}

// NewMSHR creates a new MSHR.
func NewMSHR(capacity int) *MSHR {
	return &MSHR{Capacity: capacity}
}

// Lookup tells if addr is in flight.
func (m *MSHR) Lookup(addr uint64) bool {
	return m.find(addr) >= 0
}

func (m *MSHR) find(addr uint64) int {
	for i, e := range m.Entries {
		if e.Address == addr {
			return i
		}
	}

	return -1
}

// AddEntry allocates an entry for addr.
func (m *MSHR) AddEntry(addr uint64, isPrefetch bool) error {
	if m.Lookup(addr) {
		return fmt.Errorf("trying to add an address that is already in MSHR")
	}

	if m.IsFull() {
		return fmt.Errorf("trying to add to a full MSHR")
	}

	m.Entries = append(m.Entries, MSHREntry{
		Address:    addr,
		IsPrefetch: isPrefetch,
	})

	return nil
}

// AddDemandToEntry attaches a demand access issued at t to the entry of addr.
func (m *MSHR) AddDemandToEntry(addr uint64, t sim.VTimeInCycle) error {
	i := m.find(addr)
	if i < 0 {
		return fmt.Errorf("trying to add a request to an non-exist entry")
	}

	m.Entries[i].Demands = append(m.Entries[i].Demands, t)

	return nil
}

// RemoveEntry removes and returns the entry of addr.
func (m *MSHR) RemoveEntry(addr uint64) (MSHREntry, error) {
	i := m.find(addr)
	if i < 0 {
		return MSHREntry{}, fmt.Errorf("trying to remove an non-exist entry")
	}

	e := m.Entries[i]
	m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)

	return e, nil
}

// Occupancy returns the number of entries in use.
func (m *MSHR) Occupancy() int {
	return len(m.Entries)
}

// IsFull tells if no more entry can be added.
func (m *MSHR) IsFull() bool {
	return len(m.Entries) >= m.Capacity
}

// Reset removes all the entries.
func (m *MSHR) Reset() {
	m.Entries = nil
}
