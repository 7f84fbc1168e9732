package section_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/section"
)

func TestSettings_SchemaDefaults(t *testing.T) {
	s := section.NewSettings(
		map[string]any{"title": "Hi", "columns": float64(3)},
		map[string]section.Field{
			"subtitle": {Type: section.FieldString, Default: "Welcome"},
			"show":     {Type: section.FieldBoolean, Default: true},
		},
	)

	assert.Equal(t, "Hi", s.String("title"))
	assert.Equal(t, "Welcome", s.String("subtitle"))
	assert.True(t, s.Bool("show"))
	assert.Equal(t, 3, s.Int("columns"))
	assert.Equal(t, "", s.String("unknown"))
	assert.False(t, s.Has("unknown"))
	assert.Nil(t, s.List("unknown"))

	all := s.All()
	assert.Equal(t, "Welcome", all["subtitle"])
	assert.Equal(t, "Hi", all["title"])
}

func TestSettings_ListConversion(t *testing.T) {
	s := section.NewSettings(map[string]any{"tags": []string{"a", "b"}}, nil)
	assert.Equal(t, []any{"a", "b"}, s.List("tags"))
}

func TestContextView_Nil(t *testing.T) {
	v := section.NewContextView(nil)
	assert.Nil(t, v)
	assert.Nil(t, v.Get("title"))
	assert.Equal(t, "", v.String("title"))
	assert.False(t, v.Has("title"))
}

func TestContextFields(t *testing.T) {
	p := &domain.Product{ID: "1", Title: "Mug", Price: 9.5}
	fields := section.ContextFields(p)
	assert.Equal(t, "Mug", fields["title"])
	assert.Equal(t, 9.5, fields["price"])

	type plain struct {
		Name string `json:"name"`
	}
	assert.Equal(t, "n", section.ContextFields(plain{Name: "n"})["name"])

	list := section.ContextFields([]string{"a"})
	assert.Equal(t, []any{"a"}, list["items"])
}
