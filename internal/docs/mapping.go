package docs

// Mapping indexes a group of sibling items by relative id and by bare name.
// When two items share a key, the one that appears first in the group wins.
type Mapping struct {
	items  []*Item
	search map[string]*Item
}

var emptyMapping = &Mapping{}

// NewMapping builds the index over items in their given order.
func NewMapping(items []*Item) *Mapping {
	m := &Mapping{items: items, search: make(map[string]*Item, 2*len(items))}
	for _, it := range items {
		m.setDefault(it.RelID(), it)
		m.setDefault(it.Name(), it)
	}
	return m
}

func (m *Mapping) setDefault(key string, it *Item) {
	if _, ok := m.search[key]; !ok {
		m.search[key] = it
	}
}

// Get returns the item registered under key.
func (m *Mapping) Get(key string) (*Item, bool) {
	it, ok := m.search[key]
	return it, ok
}

// Items returns the indexed items in source order.
func (m *Mapping) Items() []*Item { return m.items }

func (m *Mapping) Len() int { return len(m.items) }

// chain probes several mappings in priority order.
type chain []*Mapping

func (c chain) get(key string) *Item {
	for _, m := range c {
		if it, ok := m.Get(key); ok {
			return it
		}
	}
	return nil
}
