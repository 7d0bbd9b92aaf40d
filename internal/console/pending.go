package console

// ActionKind names a per-item action such as "feature" or "verify".
type ActionKind string

// ActionKey identifies one in-flight action on one item.
type ActionKey struct {
	Kind ActionKind
	ID   string
}

// pendingSet is a copy-on-write set of in-flight actions.
type pendingSet map[ActionKey]struct{}

func (p pendingSet) with(key ActionKey) pendingSet {
	out := make(pendingSet, len(p)+1)
	for k := range p {
		out[k] = struct{}{}
	}
	out[key] = struct{}{}
	return out
}

func (p pendingSet) without(key ActionKey) pendingSet {
	if _, ok := p[key]; !ok {
		return p
	}
	out := make(pendingSet, len(p))
	for k := range p {
		if k != key {
			out[k] = struct{}{}
		}
	}
	return out
}
