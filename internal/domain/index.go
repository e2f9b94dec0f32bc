package domain

import "time"

// PageNode represents an indexed wiki page file
type PageNode struct {
	Path   string   // Relative path from wiki root (primary key)
	Entity EntityID // Subject the page describes
	Mtime  int64    // Unix timestamp for incremental sync
}

// Triple is one annotation extracted from page content
type Triple struct {
	Subject  EntityID
	Property string
	Raw      string // lexical value, parsed with the property's declared type
}

// PropertyDecl is a property type declared on a Property page
type PropertyDecl struct {
	Property string
	Kind     ValueKind
	Fields   []ValueKind // record field kinds
}

// SyncStats holds statistics from a sync operation
type SyncStats struct {
	PagesAdded   int           `json:"pagesAdded"`
	PagesUpdated int           `json:"pagesUpdated"`
	PagesDeleted int           `json:"pagesDeleted"`
	TriplesAdded int           `json:"triplesAdded"`
	FilesScanned int           `json:"filesScanned"`
	Duration     time.Duration `json:"duration"`
	// Changed lists the subjects whose data changed, for cache purges
	Changed []EntityID `json:"changed,omitempty"`
}
