package resolver

import (
	"context"

	"semcache/internal/domain"
)

// fetchProperty resolves the last property of column over frontier.
// Record columns with an index or lang parameter are fetched whole,
// decomposed, then sorted and sliced on the decomposed values.
func (r *Resolver) fetchProperty(ctx context.Context, frontier []domain.EntityID, column *domain.PrintRequest) ([]domain.Value, error) {
	opts := domain.RequestOptionsFor(column)
	if !column.ExpandsRecord() {
		return r.fetcher.Values(ctx, frontier, column.Property(), opts, column.PreserveRaw())
	}

	values, err := r.fetcher.Values(ctx, frontier, column.Property(), nil, column.PreserveRaw())
	if err != nil {
		return nil, err
	}
	return domain.ApplyRestrictions(expandRecords(values, column), opts), nil
}

// expandRecords replaces each record by the component the column asks
// for: the text matching its language, else the field at its index
func expandRecords(values []domain.Value, column *domain.PrintRequest) []domain.Value {
	index, hasIndex := column.Index()
	lang := column.Lang()

	out := make([]domain.Value, 0, len(values))
	for _, v := range values {
		if v.Kind != domain.KindRecord {
			out = append(out, v)
			continue
		}
		if lang != "" && v.HasLangText() {
			if t, ok := v.TextForLang(lang); ok {
				out = append(out, domain.TextValue(t.Text))
			}
			continue
		}
		if hasIndex {
			if f, ok := v.Field(index); ok {
				out = append(out, f)
			}
			continue
		}
		out = append(out, v)
	}
	return out
}
