package convert

// ListType is the kind of list an item belongs to.
type ListType uint8

const (
	Bullet ListType = iota
	Numbered
)

// Value returns the Portable Text listItem value.
func (t ListType) Value() string {
	if t == Numbered {
		return "number"
	}
	return "bullet"
}

func (t ListType) String() string { return t.Value() }

// listStack tracks list nesting. Depth equals the number of open lists.
type listStack struct {
	types []ListType
}

func (s *listStack) push(t ListType) { s.types = append(s.types, t) }

func (s *listStack) pop() bool {
	if len(s.types) == 0 {
		return false
	}
	s.types = s.types[:len(s.types)-1]
	return true
}

// top returns the innermost list type and the current nesting level.
func (s *listStack) top() (ListType, int, bool) {
	if len(s.types) == 0 {
		return Bullet, 0, false
	}
	return s.types[len(s.types)-1], len(s.types), true
}

func (s *listStack) level() int { return len(s.types) }
