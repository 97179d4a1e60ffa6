package ir

// Item is a tracked name together with its current state.
type Item struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// Lookup is the result of a point lookup. Found is false when the name is
// not tracked, in which case State is empty.
type Lookup struct {
	Name  string
	State string
	Found bool
}

// States returns the mapping name -> state for a slice of items.
func States(items []Item) map[string]string {
	m := make(map[string]string, len(items))
	for _, it := range items {
		m[it.Name] = it.State
	}
	return m
}
