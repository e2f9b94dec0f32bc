package domain

// FacetType is a grouping axis over a result set
type FacetType string

const (
	FacetProperties FacetType = "properties"
	FacetCategories FacetType = "categories"
)

// FacetCountMap maps a facet type to label occurrence counts
type FacetCountMap map[FacetType]map[string]int

// EntityFields lists the labels of one entity as reported by a bulk preload
type EntityFields struct {
	Properties []string
	Categories []string
}

// FieldList is the outcome of a bulk preload: the property keys and
// category titles carried by each preloaded entity
type FieldList map[EntityID]EntityFields
