package domain

import (
	"slices"

	"github.com/google/uuid"
)

// AppendPosition inserts a new section after every existing one.
const AppendPosition = -1

// NewSectionID returns a fresh section instance identifier.
// Replaced in tests that need stable ids.
var NewSectionID = func() string { return uuid.New().String() }

// SectionInstance is one placed occurrence of a section with its own settings.
type SectionInstance struct {
	ID       string         `json:"id"`
	Key      string         `json:"key"`
	Settings map[string]any `json:"settings"`
}

// Clone returns a deep copy of the instance.
func (s SectionInstance) Clone() SectionInstance {
	return SectionInstance{
		ID:       s.ID,
		Key:      s.Key,
		Settings: CloneSettings(s.Settings),
	}
}

// SectionList is an ordered sequence of section instances. Ids are unique
// within one list. Every mutator returns a new list and leaves the receiver
// untouched.
type SectionList []SectionInstance

// Clone returns a deep copy. A nil list stays nil.
func (l SectionList) Clone() SectionList {
	if l == nil {
		return nil
	}
	out := make(SectionList, len(l))
	for i, s := range l {
		out[i] = s.Clone()
	}
	return out
}

// IDs returns the instance ids in list order.
func (l SectionList) IDs() []string {
	ids := make([]string, len(l))
	for i, s := range l {
		ids[i] = s.ID
	}
	return ids
}

// Find returns the instance with the given id.
func (l SectionList) Find(id string) (SectionInstance, bool) {
	for _, s := range l {
		if s.ID == id {
			return s, true
		}
	}
	return SectionInstance{}, false
}

// Add inserts a new instance of key at position, or appends when position is
// AppendPosition or out of range. It returns the new list and the created
// instance.
func (l SectionList) Add(key string, settings map[string]any, position int) (SectionList, SectionInstance) {
	inst := SectionInstance{
		ID:       l.freshID(),
		Key:      key,
		Settings: CloneSettings(settings),
	}
	if inst.Settings == nil {
		inst.Settings = map[string]any{}
	}

	out := l.Clone()
	if out == nil {
		out = SectionList{}
	}
	if position < 0 || position >= len(out) {
		return append(out, inst), inst
	}
	return slices.Insert(out, position, inst), inst
}

// Remove drops the instance with id, preserving the order of the survivors.
func (l SectionList) Remove(id string) SectionList {
	out := make(SectionList, 0, len(l))
	for _, s := range l {
		if s.ID != id {
			out = append(out, s.Clone())
		}
	}
	return out
}

// Update shallow-merges partial into the settings of the instance with id.
// Unknown ids leave the list unchanged.
func (l SectionList) Update(id string, partial map[string]any) SectionList {
	out := l.Clone()
	for i := range out {
		if out[i].ID != id {
			continue
		}
		if out[i].Settings == nil {
			out[i].Settings = make(map[string]any, len(partial))
		}
		for k, v := range CloneSettings(partial) {
			out[i].Settings[k] = v
		}
		break
	}
	return out
}

// Reorder rebuilds the list in the order given by ids. Instances whose id is
// not listed are dropped; unknown and repeated ids are ignored.
func (l SectionList) Reorder(ids []string) SectionList {
	byID := make(map[string]SectionInstance, len(l))
	for _, s := range l {
		byID[s.ID] = s
	}
	out := make(SectionList, 0, len(ids))
	used := make(map[string]bool, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok || used[id] {
			continue
		}
		used[id] = true
		out = append(out, s.Clone())
	}
	return out
}

// Normalize assigns fresh ids to instances with an empty or repeated id and
// replaces nil settings with an empty map. Used when an editor submits a whole
// list.
func (l SectionList) Normalize() SectionList {
	out := l.Clone()
	if out == nil {
		return SectionList{}
	}
	seen := make(map[string]bool, len(out))
	for i := range out {
		if out[i].ID == "" || seen[out[i].ID] {
			out[i].ID = out.freshID()
		}
		seen[out[i].ID] = true
		if out[i].Settings == nil {
			out[i].Settings = map[string]any{}
		}
	}
	return out
}

func (l SectionList) freshID() string {
	for {
		id := NewSectionID()
		if _, taken := l.Find(id); !taken {
			return id
		}
	}
}

// CloneSettings deep-copies a settings map including nested maps and slices.
func CloneSettings(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneSettings(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(val)
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = CloneSettings(item)
		}
		return out
	default:
		return v
	}
}
