package querycache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"semcache/internal/domain"
)

// SchemaVersion is embedded in every key so that a change of the
// container layout orphans old entries instead of misreading them.
const SchemaVersion = "2"

const keyPrefix = "smw:query:"

// QueryKey derives the durable key of a query
func QueryKey(q *domain.Query, modifier string) string {
	return hashKey("query", q.Identity(), modifier)
}

// EntityKey derives the key under which an entity anchors the list of
// queries computed while embedded in it
func EntityKey(id domain.EntityID, modifier string) string {
	return hashKey("entity", id.Hash(), modifier)
}

func hashKey(kind, identity, modifier string) string {
	d := xxhash.New()
	_, _ = d.WriteString(kind)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(identity)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(SchemaVersion)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(modifier)
	return keyPrefix + strconv.FormatUint(d.Sum64(), 16)
}
