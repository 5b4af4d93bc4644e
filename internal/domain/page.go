package domain

// Space represents a wiki collection (e.g. a Confluence space).
type Space struct {
	Key  string
	Name string
}

// PageSummary is a lightweight listing entry for a remote page. HasChildren
// is reported by the source before any children are fetched.
type PageSummary struct {
	ID          string
	Title       string
	HasChildren bool
}

// Page is the full content of a remote page as returned by the source.
// LastModified is the source-side timestamp, kept as an opaque ISO-8601
// string; it may be empty when the source does not report one.
type Page struct {
	ID           string
	Title        string
	Content      string
	URL          string
	LastModified string
}
