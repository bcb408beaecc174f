package resolver

import "sync"

// Governor is a fixed-size permit pool. Admission never blocks: a full pool
// rejects immediately so the caller can tell the client to retry later.
type Governor struct {
	permits chan struct{}
}

// Permit is held for the lifetime of one admitted resolution.
type Permit struct {
	governor *Governor
	once     sync.Once
}

func NewGovernor(capacity int) *Governor {
	if capacity < 1 {
		capacity = 1
	}
	return &Governor{
		permits: make(chan struct{}, capacity),
	}
}

// TryAdmit takes a permit if one is free.
func (g *Governor) TryAdmit() (*Permit, bool) {
	select {
	case g.permits <- struct{}{}:
		return &Permit{governor: g}, true
	default:
		return nil, false
	}
}

// Release returns the permit to the pool. Calling it more than once is a no-op.
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		<-p.governor.permits
	})
}

func (g *Governor) Capacity() int {
	return cap(g.permits)
}

func (g *Governor) InFlight() int {
	return len(g.permits)
}
