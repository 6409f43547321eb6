// Package reports хранит готовые PDF-отчеты по идентификатору сканирования.
package reports

import (
	"context"
	"time"
)

// Store хранилище отчетов
type Store interface {
	Save(ctx context.Context, scanID string, pdf []byte) error
	// Load возвращает model.ErrReportNotFound, если отчета нет или он устарел
	Load(ctx context.Context, scanID string) ([]byte, error)
}

// objectName имя объекта отчета в хранилище
func objectName(scanID string, createdAt time.Time) string {
	return "reports/" + createdAt.UTC().Format("2006/01/02") + "/" + scanID + ".pdf"
}
