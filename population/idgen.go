package population

import "sync/atomic"

// idGenerator hands out sequential handles starting from 1, so that a run
// with the same setup always numbers its individuals the same way.
type idGenerator struct {
	next uint64
}

func (g *idGenerator) generate() uint64 {
	return atomic.AddUint64(&g.next, 1)
}
