package shared

const (
	defaultPageSize = 20
	// MaxPageSize caps every list query regardless of what the caller asks for
	MaxPageSize = 100
)

// Filter is the paging and ordering input shared by list queries. OrderBy is
// checked against a per-table whitelist by the repositories.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: defaultPageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}

// Limit is PageSize clamped to [1, MaxPageSize], defaulting when unset
func (f Filter) Limit() int {
	switch {
	case f.PageSize <= 0:
		return defaultPageSize
	case f.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return f.PageSize
	}
}

// Offset returns the row offset of the filter's page
func (f Filter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}
