package health

import "context"

// CheckFunc проверяет состояние одного компонента
type CheckFunc func(ctx context.Context) error

// CheckerInterface определяет интерфейс проверки здоровья
type CheckerInterface interface {
	// Health возвращает статус процесса, всегда 200
	Health(ctx context.Context) Status

	// Ready возвращает статус компонентов и готовность принимать сканирования
	Ready(ctx context.Context) (Status, bool)
}
