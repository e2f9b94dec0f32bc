package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"paris", "Paris"},
		{"  new_york  city ", "New york city"},
		{"élan", "Élan"},
		{"", ""},
		{"___", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.in))
		})
	}
}

func TestParseEntityID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    EntityID
		wantErr bool
	}{
		{"main namespace", "France", EntityID{Namespace: NSMain, Title: "France"}, false},
		{"category", "Category:town", EntityID{Namespace: NSCategory, Title: "Town"}, false},
		{"property", "property:has_population", EntityID{Namespace: NSProperty, Title: "Has population"}, false},
		{"subobject", "Paris#census 2020", EntityID{Namespace: NSMain, Title: "Paris", Subobject: "census 2020"}, false},
		{"unknown prefix stays in title", "Help:Contents", EntityID{Namespace: NSMain, Title: "Help:Contents"}, false},
		{"empty", "  ", EntityID{}, true},
		{"only subobject", "#x", EntityID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntityID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntityID_StringRoundTrip(t *testing.T) {
	ids := []EntityID{
		Page("France"),
		CategoryPage("Town"),
		NewEntityID(NSProperty, "Has area", ""),
		NewEntityID(NSMain, "Paris", "census"),
	}

	for _, id := range ids {
		parsed, err := ParseEntityID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
		assert.Equal(t, id.String(), id.Hash())
	}
}

func TestEntityID_BasePage(t *testing.T) {
	id := NewEntityID(NSMain, "Paris", "census")
	assert.Equal(t, Page("Paris"), id.BasePage())
	assert.False(t, id.IsZero())
	assert.True(t, EntityID{}.IsZero())
}

func TestSortEntities(t *testing.T) {
	ids := []EntityID{Page("Lyon"), CategoryPage("Town"), Page("Brest")}
	SortEntities(ids)
	assert.Equal(t, []EntityID{Page("Brest"), CategoryPage("Town"), Page("Lyon")}, ids)
}
