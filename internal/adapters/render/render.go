// Package render formats command results as plain text for the CLI and
// MCP surfaces.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"semcache/internal/application/commands"
	"semcache/internal/application/facets"
	"semcache/internal/application/querycache"
	"semcache/internal/domain"
)

// Cell joins the values of one field
func Cell(values []domain.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// Result writes a query result as an aligned table followed by a summary
func Result(w io.Writer, res *commands.QueryResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	header := append([]string{"Subject"}, res.Columns...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, 0, len(row.Cells)+1)
		cells = append(cells, row.Entity.String())
		for _, c := range row.Cells {
			cells = append(cells, Cell(c))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	source := "computed"
	if res.FromCache {
		source = "cached"
	}
	more := ""
	if res.HasFurther {
		more = ", more available"
	}
	_, err := fmt.Fprintf(w, "\n%d of %d result(s), %s%s\n", len(res.Rows), res.Count, source, more)
	if err != nil {
		return err
	}

	if len(res.Facets) > 0 {
		if err := Facets(w, res.Facets); err != nil {
			return err
		}
	}
	if len(res.Dependencies) > 0 {
		deps := make([]string, len(res.Dependencies))
		for i, d := range res.Dependencies {
			deps[i] = d.String()
		}
		_, err = fmt.Fprintf(w, "\nDepends on: %s\n", strings.Join(deps, ", "))
	}
	return err
}

// Facets writes label counts per facet type, most frequent first
func Facets(w io.Writer, counts domain.FacetCountMap) error {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	for _, t := range types {
		if _, err := fmt.Fprintf(w, "\n%s:\n", t); err != nil {
			return err
		}
		for _, e := range facets.Sorted(counts[domain.FacetType(t)]) {
			if _, err := fmt.Fprintf(w, "  %-30s %d\n", e.Label, e.Count); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats writes the cache counters and ratios
func Stats(w io.Writer, s querycache.StatsSnapshot) error {
	keys := make([]string, 0, len(s.Counters))
	for k := range s.Counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%d\n", k, s.Counters[k])
	}
	fmt.Fprintf(tw, "hit ratio\t%.3f\n", s.HitRatio)
	fmt.Fprintf(tw, "miss ratio\t%.3f\n", s.MissRatio)
	fmt.Fprintf(tw, "median miss time\t%s\n", s.MedianResponse.Round(time.Microsecond))
	return tw.Flush()
}
