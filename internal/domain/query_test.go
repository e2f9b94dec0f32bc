package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_Identity(t *testing.T) {
	town := CategoryCondition{Category: "Town"}
	pop := PropertyCondition{Property: "Has population", Comparator: CmpGreaterEq, Value: "1000"}

	base := NewQuery(Conjunction{Items: []Condition{town, pop}}, WithLimit(10))

	t.Run("operand order does not matter", func(t *testing.T) {
		swapped := NewQuery(Conjunction{Items: []Condition{pop, town}}, WithLimit(10))
		assert.Equal(t, base.Identity(), swapped.Identity())
	})

	t.Run("presentation options are excluded", func(t *testing.T) {
		other := NewQuery(Conjunction{Items: []Condition{town, pop}},
			WithLimit(10),
			WithProcessingContext(ContextAPI),
			WithColumns(NewPropertyPrint("", "Has area", KindScalar)),
		)
		assert.Equal(t, base.Identity(), other.Identity())
	})

	t.Run("embedding page is included", func(t *testing.T) {
		france := NewQuery(base.Condition(), WithLimit(10), WithContextEntity(Page("France")))
		spain := NewQuery(base.Condition(), WithLimit(10), WithContextEntity(Page("Spain")))
		assert.NotEqual(t, france.Identity(), spain.Identity())
		assert.NotEqual(t, base.Identity(), france.Identity())
	})

	t.Run("limit, offset and sort are included", func(t *testing.T) {
		assert.NotEqual(t, base.Identity(), NewQuery(base.Condition(), WithLimit(11)).Identity())
		assert.NotEqual(t, base.Identity(), NewQuery(base.Condition(), WithLimit(10), WithOffset(10)).Identity())
		assert.NotEqual(t, base.Identity(),
			NewQuery(base.Condition(), WithLimit(10), WithSort(SortKey{Property: "Has area"})).Identity())
	})

	t.Run("title normalization", func(t *testing.T) {
		a := NewQuery(CategoryCondition{Category: "town"})
		b := NewQuery(CategoryCondition{Category: "Town"})
		assert.Equal(t, a.Identity(), b.Identity())
	})
}

func TestQuery_Defaults(t *testing.T) {
	q := NewQuery(CategoryCondition{Category: "Town"})
	assert.Equal(t, 50, q.Limit())
	assert.False(t, q.IsEmbedded())
	assert.False(t, q.NoCache())

	q = NewQuery(CategoryCondition{Category: "Town"}, WithNoCache(), WithContextEntity(Page("France")))
	assert.True(t, q.NoCache())
	assert.True(t, q.IsEmbedded())
}

func TestQueryResult_Cursor(t *testing.T) {
	ids := []EntityID{Page("Lyon"), Page("Nice")}
	r := NewQueryResult(ids, 2, true)

	var seen []EntityID
	for id, ok := r.Next(); ok; id, ok = r.Next() {
		seen = append(seen, id)
	}
	assert.Equal(t, ids, seen)

	_, ok := r.Next()
	assert.False(t, ok)

	r.Reset()
	first, ok := r.Next()
	assert.True(t, ok)
	assert.Equal(t, Page("Lyon"), first)

	c := r.Clone(true)
	assert.True(t, c.FromCache())
	assert.False(t, r.FromCache())
	assert.Equal(t, r.Entities(), c.Entities())
	assert.True(t, c.HasFurtherResults())
	assert.Equal(t, 2, c.Count())

	out := r.Entities()
	out[0] = Page("Changed")
	assert.Equal(t, Page("Lyon"), r.Entities()[0])
}

func TestPrintRequest(t *testing.T) {
	t.Run("raw output format", func(t *testing.T) {
		p := NewPropertyPrint("", "Has note", KindText, WithOutputFormat("-raw"))
		assert.True(t, p.PreserveRaw())
		assert.False(t, NewPropertyPrint("", "Has note", KindText, WithOutputFormat("-")).PreserveRaw())
	})

	t.Run("single element chain is a property", func(t *testing.T) {
		p := NewChainPrint("", []string{"has capital"}, KindEntityRef)
		assert.True(t, p.IsMode(PrintProperty))
		assert.Equal(t, "Has capital", p.Property())
	})

	t.Run("empty chain link invalidates", func(t *testing.T) {
		p := NewChainPrint("", []string{"Has capital", ""}, KindText)
		assert.False(t, p.IsValid())
	})

	t.Run("record expansion", func(t *testing.T) {
		assert.True(t, NewPropertyPrint("", "Has rec", KindRecord, WithIndex(0)).ExpandsRecord())
		assert.True(t, NewPropertyPrint("", "Has rec", KindRecord, WithLang("en")).ExpandsRecord())
		assert.False(t, NewPropertyPrint("", "Has rec", KindRecord).ExpandsRecord())
		assert.False(t, NewPropertyPrint("", "Has n", KindScalar, WithIndex(0)).ExpandsRecord())
	})

	t.Run("membership needs a category", func(t *testing.T) {
		assert.False(t, NewMembershipPrint("", EntityID{}).IsValid())
		assert.True(t, NewMembershipPrint("", CategoryPage("Town")).IsValid())
	})
}
