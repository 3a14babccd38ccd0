package timing

// MenuItem is one entry of a context menu.
type MenuItem struct {
	Label   string
	Tooltip string
	// IsChecked, if set, makes the item a toggle and reports its state.
	IsChecked func() bool
	Execute   func()
}

func (item MenuItem) Checked() bool {
	return item.IsChecked != nil && item.IsChecked()
}

type MenuSection struct {
	Label string
	Items []MenuItem
}

// Menu is a context menu described as data. Hosts turn it into widgets; tests execute items directly.
type Menu struct {
	Sections []MenuSection
}

// BeginSection starts a new section. Items added before the first section go into an unnamed one.
func (m *Menu) BeginSection(label string) {
	m.Sections = append(m.Sections, MenuSection{Label: label})
}

func (m *Menu) AddItem(item MenuItem) {
	if len(m.Sections) == 0 {
		m.BeginSection("")
	}
	sec := &m.Sections[len(m.Sections)-1]
	sec.Items = append(sec.Items, item)
}

// AddItems adds items to the current section.
func (m *Menu) AddItems(items ...MenuItem) {
	for _, item := range items {
		m.AddItem(item)
	}
}

// Find returns the first item labeled label.
func (m *Menu) Find(label string) (MenuItem, bool) {
	for _, sec := range m.Sections {
		for _, item := range sec.Items {
			if item.Label == label {
				return item, true
			}
		}
	}
	return MenuItem{}, false
}

func (m *Menu) Len() int {
	n := 0
	for _, sec := range m.Sections {
		n += len(sec.Items)
	}
	return n
}
