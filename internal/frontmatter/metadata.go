package frontmatter

import (
	"fmt"
	"time"
)

// Pagination describes a paginated-collection declaration. It is parsed and
// validated but not yet expanded into per-page copies; collection sizes are
// only known after full graph construction.
type Pagination struct {
	Collection string
	PageSize   int
}

// Metadata is the typed view of a page's frontmatter. Recognized keys are
// lifted into fields; every other key is passed through verbatim in Data.
type Metadata struct {
	Title      string
	Date       *time.Time
	Layout     string
	Permalink  string
	Depends    []string
	Pagination *Pagination
	Data       map[string]any
}

// Recognized frontmatter date layouts, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse splits a document and lifts the recognized frontmatter keys into a
// Metadata value, returning the remaining body untouched.
func Parse(content []byte) (*Metadata, []byte, error) {
	raw, body, had, _, err := Split(content)
	if err != nil {
		return nil, nil, err
	}
	if !had {
		return nil, nil, ErrMissingFrontmatter
	}

	fields, err := ParseYAML(raw)
	if err != nil {
		return nil, nil, err
	}

	meta, err := FromFields(fields)
	if err != nil {
		return nil, nil, err
	}
	return meta, body, nil
}

// FromFields builds a Metadata from an already-parsed frontmatter map.
func FromFields(fields map[string]any) (*Metadata, error) {
	meta := &Metadata{Data: map[string]any{}}

	for key, value := range fields {
		switch key {
		case "title":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("title must be a string, got %T", value)
			}
			meta.Title = s
			// The title also stays visible under data for template access.
			meta.Data["title"] = s
		case "date":
			t, err := parseDate(value)
			if err != nil {
				return nil, err
			}
			meta.Date = t
		case "layout":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("layout must be a string, got %T", value)
			}
			meta.Layout = s
		case "permalink":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("permalink must be a string, got %T", value)
			}
			meta.Permalink = s
		case "depends":
			deps, err := parseStringList(value)
			if err != nil {
				return nil, fmt.Errorf("depends: %w", err)
			}
			meta.Depends = deps
		case "pagination":
			p, err := parsePagination(value)
			if err != nil {
				return nil, err
			}
			meta.Pagination = p
		default:
			meta.Data[key] = value
		}
	}

	return meta, nil
}

func parseDate(value any) (*time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		// yaml.v3 decodes ISO 8601 timestamps natively.
		return &v, nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return &t, nil
			}
		}
		return nil, fmt.Errorf("date %q is not a recognized date-time", v)
	default:
		return nil, fmt.Errorf("date must be a date-time, got %T", value)
	}
}

func parseStringList(value any) ([]string, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of strings, got %T", value)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string element, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}

func parsePagination(value any) (*Pagination, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("pagination must be a mapping, got %T", value)
	}
	p := &Pagination{}
	if c, ok := m["collection"].(string); ok {
		p.Collection = c
	} else {
		return nil, fmt.Errorf("pagination.collection must be a string")
	}
	switch n := m["page_size"].(type) {
	case int:
		p.PageSize = n
	case int64:
		p.PageSize = int(n)
	default:
		return nil, fmt.Errorf("pagination.page_size must be an integer")
	}
	if p.PageSize <= 0 {
		return nil, fmt.Errorf("pagination.page_size must be positive, got %d", p.PageSize)
	}
	return p, nil
}
