package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"semcache/internal/application"
	"semcache/internal/domain"
	"semcache/internal/ports"
)

// ParsePrintout builds a column from its textual form:
//
//	?Property.Chain#format=Label|+limit=2|+order=desc|+index=0|+lang=en
//
// "?" alone selects the subject itself, "?Category" its categories and
// "?Category:Name" membership in Name. The value type of a property
// column is its declared type, or page when undeclared.
func ParsePrintout(ctx context.Context, store ports.DataStore, spec string) (*domain.PrintRequest, error) {
	parts := strings.Split(spec, "|")
	head := strings.TrimSpace(parts[0])
	if !strings.HasPrefix(head, "?") {
		return nil, &application.ValidationError{
			Field:   "printouts",
			Message: fmt.Sprintf("printout %q must start with ?", spec),
		}
	}
	head = head[1:]

	var label, format string
	if i := strings.Index(head, "="); i >= 0 {
		head, label = head[:i], strings.TrimSpace(head[i+1:])
	}
	if i := strings.Index(head, "#"); i >= 0 {
		head, format = head[:i], head[i+1:]
	}
	head = strings.TrimSpace(head)

	opts, err := printOptions(spec, parts[1:])
	if err != nil {
		return nil, err
	}
	if format != "" {
		opts = append(opts, domain.WithOutputFormat(format))
	}

	var p *domain.PrintRequest
	switch {
	case head == "":
		p = domain.NewThisPrint(label, opts...)
	case strings.EqualFold(head, "category"), strings.EqualFold(head, "categories"):
		p = domain.NewCategoriesPrint(label, opts...)
	default:
		if prefix, name, ok := strings.Cut(head, ":"); ok && strings.EqualFold(strings.TrimSpace(prefix), "category") {
			p = domain.NewMembershipPrint(label, domain.CategoryPage(name), opts...)
			break
		}
		chain := strings.Split(head, ".")
		kind, err := declaredKind(ctx, store, chain[len(chain)-1])
		if err != nil {
			return nil, err
		}
		p = domain.NewChainPrint(label, chain, kind, opts...)
	}

	if !p.IsValid() {
		return nil, &application.ValidationError{
			Field:   "printouts",
			Message: fmt.Sprintf("invalid printout %q", spec),
		}
	}
	return p, nil
}

func printOptions(spec string, params []string) ([]domain.PrintOption, error) {
	var opts []domain.PrintOption
	for _, param := range params {
		key, value, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(param), "+"), "=")
		key, value = strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value)

		switch key {
		case "limit", "offset", "index":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, &application.ValidationError{
					Field:   "printouts",
					Message: fmt.Sprintf("%s in %q must be a non-negative integer", key, spec),
				}
			}
			switch key {
			case "limit":
				opts = append(opts, domain.WithColumnLimit(n))
			case "offset":
				opts = append(opts, domain.WithColumnOffset(n))
			default:
				opts = append(opts, domain.WithIndex(n))
			}
		case "order":
			opts = append(opts, domain.WithOrder(value))
		case "lang":
			opts = append(opts, domain.WithLang(value))
		case "":
		default:
			return nil, &application.ValidationError{
				Field:   "printouts",
				Message: fmt.Sprintf("unknown parameter %q in %q", key, spec),
			}
		}
	}
	return opts, nil
}

func declaredKind(ctx context.Context, store ports.DataStore, property string) (domain.ValueKind, error) {
	kind, ok, err := store.PropertyType(ctx, property)
	if err != nil {
		return domain.KindUnknown, fmt.Errorf("property type of %s: %w", property, err)
	}
	if !ok {
		return domain.KindEntityRef, nil
	}
	return kind, nil
}
