package facets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semcache/internal/domain"
	"semcache/internal/testutil"
)

func TestFilterMap_Counts(t *testing.T) {
	paris, lyon, nice := domain.Page("Paris"), domain.Page("Lyon"), domain.Page("Nice")
	store := testutil.NewDataStore().
		Set(paris, "Has population", domain.NumberValue(1)).
		Set(paris, "Has river", domain.EntityValue(domain.Page("Seine"))).
		Set(lyon, "Has population", domain.NumberValue(2)).
		SetCategories(paris, domain.CategoryPage("Town"), domain.CategoryPage("Capital")).
		SetCategories(lyon, domain.CategoryPage("Town"))

	// duplicate rows count once per entity
	result := domain.NewQueryResult([]domain.EntityID{paris, lyon, nice, paris}, 4, false)
	m := NewFilterMap(store, result)

	counts, err := m.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Has population": 2, "Has river": 1}, counts[domain.FacetProperties])
	assert.Equal(t, map[string]int{"Town": 2, "Capital": 1}, counts[domain.FacetCategories])

	assert.Equal(t, []Entry{{"Town", 2}, {"Capital", 1}}, Sorted(counts[domain.FacetCategories]))
}

func TestFilterMap_PreloadsOnce(t *testing.T) {
	store := testutil.NewDataStore().SetCategories(domain.Page("Paris"), domain.CategoryPage("Town"))
	result := domain.NewQueryResult([]domain.EntityID{domain.Page("Paris"), domain.Page("Lyon")}, 2, false)
	m := NewFilterMap(store, result)

	first, err := m.Counts(context.Background())
	require.NoError(t, err)
	second, err := m.Counts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.PreloadCalls)
	assert.Equal(t, 2, store.PreloadedTotal, "one batched call for every row")
}

func TestFilterMap_EmptyResult(t *testing.T) {
	store := testutil.NewDataStore()
	m := NewFilterMap(store, domain.NewQueryResult(nil, 0, false))

	counts, err := m.Counts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.Zero(t, store.PreloadCalls)
}
