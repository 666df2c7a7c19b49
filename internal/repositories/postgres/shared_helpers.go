package postgres

import (
	"gorm.io/gorm"
)

// Per-table sort column whitelists keep user input out of ORDER BY. Each
// list names only columns the table actually has, so a whitelisted column
// can never reference the wrong table.
var (
	userSortColumns = map[string]bool{
		"id":         true,
		"created_at": true,
		"updated_at": true,
		"email":      true,
		"last_name":  true,
	}

	organizationSortColumns = map[string]bool{
		"id":         true,
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"slug":       true,
	}

	courseSortColumns = map[string]bool{
		"id":         true,
		"created_at": true,
		"updated_at": true,
		"title":      true,
		"slug":       true,
		"price":      true,
	}

	enrollmentSortColumns = map[string]bool{
		"id":                  true,
		"enrolled_at":         true,
		"progress_percentage": true,
	}
)

// applyPaginationAndSort applies pagination and sorting with SQL injection
// protection. A sort column outside the caller's whitelist falls back to the
// caller's default column, never to one the table might not have.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder, defaultSort string, allowed map[string]bool, limit, offset int) *gorm.DB {
	if sortBy == "" || !allowed[sortBy] {
		sortBy = defaultSort
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
