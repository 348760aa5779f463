package oioproxy

// orderRoundRobin rotates candidates starting from the pool's current
// cursor position and advances the cursor by one, so successive calls
// distribute selections evenly across the live set. Adapted from the
// teacher's RoundRobin resolver group (roundrobin.go), which rotated a
// fixed index into its resolver slice the same way; here the slice is a
// point-in-time snapshot rather than a long-lived list, so the cursor is
// taken modulo the snapshot's length on every call instead of being
// stored per-resolver.
func (p *Pool) orderRoundRobin(candidates []ServiceDescriptor) []ServiceDescriptor {
	p.mu.Lock()
	start := p.rrNext % len(candidates)
	p.rrNext = (p.rrNext + 1) % len(candidates)
	p.mu.Unlock()

	ordered := make([]ServiceDescriptor, len(candidates))
	for i := range candidates {
		ordered[i] = candidates[(start+i)%len(candidates)]
	}
	return ordered
}
