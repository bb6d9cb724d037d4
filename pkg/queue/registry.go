package queue

import "sync"

// LinkRegistry is the SMP-only, process-wide map from source queue to the
// PathLink currently forwarding from it, used to short-circuit the path
// walker when a link already exists. At most one link per source queue is
// registered at a time; a link is in the registry iff it is in some path's
// links list.
type LinkRegistry struct {
	mu    sync.Mutex
	links map[*Queue]*PathLink
}

// NewLinkRegistry creates an empty registry.
func NewLinkRegistry() *LinkRegistry {
	return &LinkRegistry{links: make(map[*Queue]*PathLink)}
}

// add registers link as forwarding from source to target, first walking
// forward from target through already-registered links: if that walk ever
// reaches source, inserting this link would close an ownership cycle
// across two or more concurrently-building paths, and add reports failure
// without registering anything.
func (r *LinkRegistry) add(link *PathLink, source, target *Queue) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	node := target
	for node != nil {
		if node == source {
			return false
		}
		next, ok := r.links[node]
		if !ok {
			break
		}
		node = next.target
	}

	r.links[source] = link
	return true
}

// remove deregisters whatever link is keyed by source, if any.
func (r *LinkRegistry) remove(source *Queue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.links, source)
}

// Len reports the number of currently registered links, for tests and
// diagnostics; a well-behaved caller never observes this nonzero outside
// of a path build in progress.
func (r *LinkRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links)
}
