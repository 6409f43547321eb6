// Package model содержит константы для моделей.
//
// Группа: BASE - Базовые компоненты
// Содержит: Provider, FailureReason
package model

import "strings"

// Provider представляет каталог плейлистов
type Provider string

const (
	ProviderSpotify Provider = "spotify"
	ProviderDeezer  Provider = "deezer"
)

// String возвращает строковое представление провайдера
func (p Provider) String() string {
	return string(p)
}

// IsValid проверяет валидность провайдера
func (p Provider) IsValid() bool {
	switch p {
	case ProviderSpotify, ProviderDeezer:
		return true
	default:
		return false
	}
}

// DisplayName возвращает имя провайдера для отображения
func (p Provider) DisplayName() string {
	switch p {
	case ProviderSpotify:
		return "Spotify"
	case ProviderDeezer:
		return "Deezer"
	default:
		return strings.ToUpper(string(p))
	}
}

// ParseProvider разбирает имя провайдера без учета регистра
func ParseProvider(s string) (Provider, bool) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	return p, p.IsValid()
}

// FailureReason описывает причину пропуска плейлиста при сканировании
type FailureReason string

const (
	FailureFetch            FailureReason = "fetch_failed"
	FailureTimeout          FailureReason = "timeout"
	FailureTokenUnavailable FailureReason = "token_unavailable"
)

// NotAvailable подставляется вместо отсутствующих значений
const NotAvailable = "N/A"
