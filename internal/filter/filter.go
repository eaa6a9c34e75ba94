// Package filter builds OData filter expressions for the search index's
// release-date field from a resolved date or date range.
package filter

import (
	"fmt"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/fecha"
)

// DefaultField is the SharePoint release-date field indexed by the search
// service.
const DefaultField = "metadata_spo_item_release_date"

// Expression renders the OData filter for a resolution over the given
// index field. Single days compare against UTC midnight; ranges cover the
// whole last day.
func Expression(field string, r fecha.Resolution) string {
	if field == "" {
		field = DefaultField
	}
	start, end := r.Bounds()
	if r.Kind() == fecha.KindSingle {
		return fmt.Sprintf("%s eq %sT00:00:00Z", field, start.Format("2006-01-02"))
	}
	return fmt.Sprintf("(%s ge %sT00:00:00Z and %s le %sT23:59:59Z)",
		field, start.Format("2006-01-02"), field, end.Format("2006-01-02"))
}
