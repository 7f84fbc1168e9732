package domain_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
)

// sequentialIDs makes NewSectionID deterministic for the duration of a test.
func sequentialIDs(t *testing.T) {
	t.Helper()
	orig := domain.NewSectionID
	n := 0
	domain.NewSectionID = func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
	t.Cleanup(func() { domain.NewSectionID = orig })
}

func sampleList() domain.SectionList {
	return domain.SectionList{
		{ID: "s1", Key: "hero", Settings: map[string]any{"title": "Hi"}},
		{ID: "s2", Key: "grid", Settings: map[string]any{"columns": 3, "tags": []any{"a", "b"}}},
		{ID: "s3", Key: "form", Settings: map[string]any{}},
	}
}

// ─────────────────────────────────────────────────────────────
// Add / Remove
// ─────────────────────────────────────────────────────────────

func TestSectionList_AddAppends(t *testing.T) {
	sequentialIDs(t)
	orig := sampleList()

	out, inst := orig.Add("banner", map[string]any{"text": "Sale"}, domain.AppendPosition)

	require.Len(t, out, 4)
	require.Equal(t, "gen-1", inst.ID)
	require.Equal(t, inst, out[3])
	require.Len(t, orig, 3, "receiver must not change")
}

func TestSectionList_AddAtPosition(t *testing.T) {
	sequentialIDs(t)

	out, inst := sampleList().Add("banner", nil, 1)

	require.Equal(t, []string{"s1", inst.ID, "s2", "s3"}, out.IDs())
	require.NotNil(t, out[1].Settings)
}

func TestSectionList_AddToNil(t *testing.T) {
	var l domain.SectionList
	out, inst := l.Add("hero", nil, 5)
	require.Len(t, out, 1)
	require.Equal(t, inst.ID, out[0].ID)
}

func TestSectionList_AddNeverReusesID(t *testing.T) {
	orig := domain.NewSectionID
	calls := 0
	domain.NewSectionID = func() string {
		calls++
		if calls == 1 {
			return "s1" // collides with an existing instance
		}
		return "fresh"
	}
	t.Cleanup(func() { domain.NewSectionID = orig })

	_, inst := sampleList().Add("hero", nil, domain.AppendPosition)
	require.Equal(t, "fresh", inst.ID)
}

func TestSectionList_RemoveRestoresAfterAdd(t *testing.T) {
	orig := sampleList()

	added, inst := orig.Add("banner", map[string]any{"x": 1}, 1)
	restored := added.Remove(inst.ID)

	require.Equal(t, orig, restored)
}

func TestSectionList_RemovePreservesOrder(t *testing.T) {
	out := sampleList().Remove("s2")
	require.Equal(t, []string{"s1", "s3"}, out.IDs())
}

// ─────────────────────────────────────────────────────────────
// Update / Reorder
// ─────────────────────────────────────────────────────────────

func TestSectionList_UpdateShallowMerges(t *testing.T) {
	orig := sampleList()

	out := orig.Update("s1", map[string]any{"subtitle": "there"})

	require.Equal(t, map[string]any{"title": "Hi", "subtitle": "there"}, out[0].Settings)
	require.Equal(t, map[string]any{"title": "Hi"}, orig[0].Settings, "receiver must not change")
}

func TestSectionList_UpdateUnknownIsNoop(t *testing.T) {
	orig := sampleList()
	require.Equal(t, orig, orig.Update("missing", map[string]any{"a": 1}))
}

func TestSectionList_ReorderDropsUnlisted(t *testing.T) {
	out := sampleList().Reorder([]string{"s3", "s1"})
	require.Equal(t, []string{"s3", "s1"}, out.IDs())
}

func TestSectionList_ReorderIgnoresUnknownAndRepeated(t *testing.T) {
	out := sampleList().Reorder([]string{"s2", "nope", "s2", "s1", "s3"})
	require.Equal(t, []string{"s2", "s1", "s3"}, out.IDs())
}

// ─────────────────────────────────────────────────────────────
// Clone / Normalize
// ─────────────────────────────────────────────────────────────

func TestSectionList_CloneIsDeep(t *testing.T) {
	orig := sampleList()
	cp := orig.Clone()

	cp[1].Settings["columns"] = 4
	cp[1].Settings["tags"].([]any)[0] = "z"

	require.Equal(t, 3, orig[1].Settings["columns"])
	require.Equal(t, "a", orig[1].Settings["tags"].([]any)[0])
}

func TestSectionList_CloneNil(t *testing.T) {
	var l domain.SectionList
	require.Nil(t, l.Clone())
}

func TestSectionList_NormalizeFixesIDs(t *testing.T) {
	sequentialIDs(t)
	l := domain.SectionList{
		{ID: "", Key: "hero"},
		{ID: "a", Key: "grid"},
		{ID: "a", Key: "form"},
	}

	out := l.Normalize()

	require.Equal(t, []string{"gen-1", "a", "gen-2"}, out.IDs())
	for _, s := range out {
		require.NotNil(t, s.Settings)
	}
}
