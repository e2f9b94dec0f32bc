package resolver

import (
	"go.uber.org/zap"

	"semcache/internal/domain"
)

// Context is the state shared by every field of one result-set
// traversal. It must not be reused across requests.
type Context struct {
	highlighter *Highlighter
	journal     Journal
	logger      *zap.Logger

	// most recent category fetch, reused by membership checks on the
	// same entity
	lastCategoriesOf domain.EntityID
	lastCategories   []domain.EntityID
	hasCategories    bool
}

// ContextOption configures a Context
type ContextOption func(*Context)

// WithHighlight marks the given search tokens in text values
func WithHighlight(tokens ...string) ContextOption {
	return func(c *Context) {
		h, err := NewHighlighter(tokens)
		if err != nil {
			c.logger.Warn("highlighting disabled", zap.Error(err))
			return
		}
		c.highlighter = h
	}
}

// WithJournal records every data store lookup in j
func WithJournal(j Journal) ContextOption {
	return func(c *Context) { c.journal = j }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ContextOption {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewContext creates a traversal context
func NewContext(opts ...ContextOption) *Context {
	c := &Context{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) cachedCategories(entity domain.EntityID) ([]domain.EntityID, bool) {
	if !c.hasCategories || c.lastCategoriesOf != entity {
		return nil, false
	}
	return c.lastCategories, true
}

func (c *Context) rememberCategories(entity domain.EntityID, categories []domain.EntityID) {
	c.lastCategoriesOf = entity
	c.lastCategories = categories
	c.hasCategories = true
}

func (c *Context) recordLookup(entity domain.EntityID, property string) {
	if c.journal != nil {
		c.journal.RecordLookup(entity, property)
	}
}

func (c *Context) recordCategories(entity domain.EntityID) {
	if c.journal != nil {
		c.journal.RecordCategories(entity)
	}
}
