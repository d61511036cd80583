// Package models содержит доменные структуры общей подписки,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Subscription представляет общую подписку (семейный или групповой план),
// стоимость которой делится между участниками.
type Subscription struct {
	ID                int       // Идентификатор подписки
	Name              string    // Название сервиса подписки
	StartDate         time.Time // Дата начала подписки
	RenewPeriodMonths int       // Период продления в месяцах, >= 1
	AdminUsername     string    // Имя пользователя-администратора подписки
	CreatedAt         time.Time // Дата создания записи
}

// DummySubscription используется для приёма данных из JSON-запроса,
// прежде чем конвертировать их в Subscription.
// Даты приходят в виде строк, чтобы их можно было валидировать и парсить вручную.
type DummySubscription struct {
	Name              string `json:"name" validate:"required"`                              // Название сервиса
	StartDate         string `json:"start_date" validate:"required,datetime=2006-01-02"`    // Дата начала в формате 2006-01-02
	RenewPeriodMonths int    `json:"renew_period_months" validate:"required,gte=1,lte=120"` // Период продления в месяцах
}
