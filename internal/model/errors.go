// Package model содержит ошибки предметной области.
//
// Группа: BASE - Базовые компоненты
// Содержит: sentinel-ошибки провайдеров, реестра и отчетов
package model

import "errors"

var (
	// Провайдеры
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrProviderStatus   = errors.New("unexpected provider status")
	ErrMalformedPayload = errors.New("malformed provider payload")
	ErrTokenUnavailable = errors.New("spotify token unavailable")

	// Реестр плейлистов
	ErrUnsupportedURL     = errors.New("unsupported playlist URL")
	ErrPlaylistRegistered = errors.New("playlist already registered")

	// Отчеты
	ErrReportNotFound = errors.New("report not found")
)
