package types

// PendingUpdate is a package name and target version reported as
// upgradable by a dry-run check. Values are compared by both fields.
type PendingUpdate struct {
	Package string
	Version string
}

func (u PendingUpdate) String() string {
	return u.Package + " " + u.Version
}

// UpdateSet is a set of pending updates. The zero value is an empty set
// ready to use.
type UpdateSet struct {
	items map[PendingUpdate]struct{}
}

func NewUpdateSet(updates ...PendingUpdate) UpdateSet {
	set := UpdateSet{}
	for _, update := range updates {
		set.Add(update)
	}
	return set
}

func (s *UpdateSet) Add(update PendingUpdate) {
	if s.items == nil {
		s.items = map[PendingUpdate]struct{}{}
	}
	s.items[update] = struct{}{}
}

// Merge adds every entry of other to s.
func (s *UpdateSet) Merge(other UpdateSet) {
	for update := range other.items {
		s.Add(update)
	}
}

func (s UpdateSet) Len() int {
	return len(s.items)
}

func (s UpdateSet) Contains(update PendingUpdate) bool {
	_, ok := s.items[update]
	return ok
}

// Items returns the entries in no particular order.
func (s UpdateSet) Items() []PendingUpdate {
	out := make([]PendingUpdate, 0, len(s.items))
	for update := range s.items {
		out = append(out, update)
	}
	return out
}

func (s UpdateSet) Clone() UpdateSet {
	clone := UpdateSet{}
	clone.Merge(s)
	return clone
}
