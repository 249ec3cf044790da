package gallery

// Modifier is the keyboard modifier held during a click.
type Modifier int

const (
	ModifierNone Modifier = iota
	// ModifierShift selects the range from the last clicked row.
	ModifierShift
	// ModifierToggle is ctrl on most platforms and cmd on macOS.
	ModifierToggle
)

// Selection is the set of selected rows of a gallery view, spreadsheet
// style. It lives as long as the view and is never persisted.
type Selection struct {
	items    []string
	selected map[string]bool
	anchor   int
}

func NewSelection(items []string) *Selection {
	return &Selection{
		items:    append([]string(nil), items...),
		selected: map[string]bool{},
		anchor:   -1,
	}
}

// Click applies a click on the row at index. Out of range clicks are
// ignored and return false.
func (s *Selection) Click(index int, modifier Modifier) bool {
	if index < 0 || index >= len(s.items) {
		return false
	}
	switch {
	case modifier == ModifierToggle:
		id := s.items[index]
		if s.selected[id] {
			delete(s.selected, id)
		} else {
			s.selected[id] = true
		}
	case modifier == ModifierShift && s.anchor >= 0:
		lo, hi := s.anchor, index
		if lo > hi {
			lo, hi = hi, lo
		}
		s.selected = map[string]bool{}
		for i := lo; i <= hi; i++ {
			s.selected[s.items[i]] = true
		}
	default:
		s.selected = map[string]bool{s.items[index]: true}
	}
	s.anchor = index
	return true
}

// Toggle adds or removes one id, for checkbox style selection. Ids that are
// not rows of the view are ignored and return false.
func (s *Selection) Toggle(id string) bool {
	if s.selected[id] {
		delete(s.selected, id)
		return true
	}
	for _, item := range s.items {
		if item == id {
			s.selected[id] = true
			return true
		}
	}
	return false
}

// SelectAll selects every row, or clears the selection when every row is
// already selected.
func (s *Selection) SelectAll() {
	if len(s.selected) == len(s.items) {
		s.Clear()
		return
	}
	for _, id := range s.items {
		s.selected[id] = true
	}
}

func (s *Selection) Clear() {
	s.selected = map[string]bool{}
	s.anchor = -1
}

// SetItems replaces the rows after a refetch. Selected ids that disappeared
// are dropped.
func (s *Selection) SetItems(items []string) {
	s.items = append([]string(nil), items...)
	present := make(map[string]bool, len(items))
	for _, id := range items {
		present[id] = true
	}
	for id := range s.selected {
		if !present[id] {
			delete(s.selected, id)
		}
	}
	if s.anchor >= len(s.items) {
		s.anchor = -1
	}
}

func (s *Selection) IsSelected(id string) bool {
	return s.selected[id]
}

func (s *Selection) Len() int {
	return len(s.selected)
}

// Selected returns the selected ids in row order.
func (s *Selection) Selected() []string {
	ids := []string{}
	for _, id := range s.items {
		if s.selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}
