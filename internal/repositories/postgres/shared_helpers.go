package postgres

import (
	"gorm.io/gorm"

	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
)

// getDB returns the transaction handle if one was provided, otherwise the
// repository's own connection.
func getDB(tx, fallback *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return fallback
}

// applyCursorPage decodes the page cursor for kind and constrains the query
// to pageSize+1 rows ordered by id; the extra row tells the caller whether a
// next page exists.
func applyCursorPage(query *gorm.DB, kind models.Kind, page repositories.PageRequest) (*gorm.DB, int, error) {
	afterID, err := repositories.DecodeCursor(kind, page.Cursor)
	if err != nil {
		return nil, 0, err
	}

	pageSize := page.PageSize
	if pageSize <= 0 {
		if d, ok := models.DescriptorFor(kind); ok {
			pageSize = d.PageSize()
		} else {
			pageSize = 20
		}
	}

	if afterID > 0 {
		query = query.Where("id > ?", afterID)
	}
	return query.Order("id ASC").Limit(pageSize + 1), pageSize, nil
}

// trimPage splits a pageSize+1 result set into the page and its
// continuation cursor.
func trimPage[T any](kind models.Kind, rows []*T, pageSize int, idOf func(*T) uint) ([]*T, string) {
	if len(rows) <= pageSize {
		return rows, ""
	}
	rows = rows[:pageSize]
	return rows, repositories.EncodeCursor(kind, idOf(rows[len(rows)-1]))
}
