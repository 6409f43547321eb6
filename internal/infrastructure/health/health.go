// Package health проверяет состояние зависимостей сканера для /health и /ready.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Статусы компонентов
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
)

// Version версия сборки, задается через -ldflags
var Version = "1.0.0"

const checkTimeout = 5 * time.Second

// Checker выполняет зарегистрированные проверки
type Checker struct {
	mu        sync.RWMutex
	checks    map[string]CheckFunc
	startTime time.Time
	logger    *zap.Logger
}

var _ CheckerInterface = (*Checker)(nil)

// Status представляет статус здоровья системы
type Status struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// NewChecker создает проверку здоровья
func NewChecker(logger *zap.Logger) *Checker {
	return &Checker{
		checks:    make(map[string]CheckFunc),
		startTime: time.Now(),
		logger:    logger,
	}
}

// Register добавляет проверку компонента
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Health возвращает статус процесса
func (c *Checker) Health(ctx context.Context) Status {
	return c.status(StatusHealthy, c.checkComponents(ctx))
}

// Ready проверяет все компоненты
func (c *Checker) Ready(ctx context.Context) (Status, bool) {
	components := c.checkComponents(ctx)

	overall := StatusReady
	for _, status := range components {
		if status != StatusHealthy {
			overall = StatusUnhealthy
			break
		}
	}

	if overall == StatusReady {
		c.logger.Debug("Health check passed", zap.Any("components", components))
	} else {
		c.logger.Warn("Health check failed", zap.Any("components", components))
	}
	return c.status(overall, components), overall == StatusReady
}

func (c *Checker) status(overall string, components map[string]string) Status {
	return Status{
		Status:     overall,
		Timestamp:  time.Now(),
		Uptime:     formatDuration(time.Since(c.startTime)),
		Version:    Version,
		Components: components,
	}
}

// checkComponents проверяет состояние всех компонентов
func (c *Checker) checkComponents(ctx context.Context) map[string]string {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.RUnlock()
	sort.Strings(names)

	components := make(map[string]string, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checks[name](checkCtx)
		cancel()

		if err != nil {
			components[name] = StatusUnhealthy
			c.logger.Error("Component check failed", zap.String("component", name), zap.Error(err))
			continue
		}
		components[name] = StatusHealthy
	}
	return components
}

// formatDuration форматирует время в читаемый формат (например: 8s)
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
