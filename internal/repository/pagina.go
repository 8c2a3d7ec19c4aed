package repository

import "gorm.io/gorm"

const limiteMaximo = 500

// listarPagina counts the rows matched by q and loads page number page
// (1-based) in the given order. q must already be scoped with Model so the
// count and the fetch see the same filters.
func listarPagina[T any](q *gorm.DB, orden string, page, limit int, preloads ...string) ([]T, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > limiteMaximo {
		limit = limiteMaximo
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := []T{}
	if total == 0 {
		return rows, 0, nil
	}
	for _, p := range preloads {
		q = q.Preload(p)
	}
	err := q.Order(orden).Offset((page - 1) * limit).Limit(limit).Find(&rows).Error
	return rows, total, err
}
