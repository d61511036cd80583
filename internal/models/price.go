package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord описывает стоимость всей подписки, действующую
// в инклюзивном окне [ValidFrom, ValidTo]. ValidTo == nil означает,
// что запись открытая, то есть цена действует до сих пор.
// На одну подписку одновременно допускается не более одной открытой записи.
type PriceRecord struct {
	ID             int             // Идентификатор записи цены
	SubscriptionID int             // Подписка, к которой относится цена
	Price          decimal.Decimal // Стоимость всей подписки за один период
	ValidFrom      time.Time       // Начало действия цены (включительно)
	ValidTo        *time.Time      // Конец действия цены (включительно), nil — запись открытая
}

// DummyPrice используется для приёма новой цены из JSON-запроса.
// Цена приходит строкой и парсится в decimal на границе валидации.
type DummyPrice struct {
	Price     string `json:"price" validate:"required"`                          // Стоимость всей подписки
	ValidFrom string `json:"valid_from" validate:"required,datetime=2006-01-02"` // Начало действия в формате 2006-01-02
}
