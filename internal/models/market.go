package models

import "time"

// Quote — снапшот цены от терминала.
type Quote struct {
	Symbol       string
	Price        float64
	Bid          float64
	Ask          float64
	SpreadPoints float64
	Time         time.Time
}

// SymbolInfo — торговые ограничения инструмента у брокера.
type SymbolInfo struct {
	Symbol        string
	MinLot        float64
	MaxLot        float64
	LotStep       float64
	Point         float64
	TickSize      float64
	TickValue     float64 // денежная стоимость одного тика на 1 лот
	MinStopPoints float64 // stops_level: минимальная дистанция SL/TP в пунктах
	Digits        int
}

type AccountState struct {
	Equity     float64
	FreeMargin float64
}

// BrokerPosition — открытая позиция как её видит брокер.
type BrokerPosition struct {
	Ticket   int64
	Symbol   string
	Side     Side
	Entry    float64
	Current  float64
	Volume   float64
	SL       float64
	TP       float64
	Profit   float64 // текущий плавающий P&L в валюте счёта
	OpenTime time.Time
}

type DealType string

const (
	DealEntry DealType = "entry"
	DealExit  DealType = "exit"
)

// Deal — запись из истории сделок брокера.
type Deal struct {
	PositionID int64
	Type       DealType
	Price      float64
	Volume     float64
	Profit     float64
	Time       time.Time
}

// OrderRequest — рыночный ордер для отправки в терминал.
type OrderRequest struct {
	Symbol          string
	Side            Side
	Volume          float64
	Price           float64
	SL              float64
	TP              float64
	DeviationPoints int
	Comment         string
}

// OrderResult — подтверждённое исполнение (all-or-nothing).
type OrderResult struct {
	Ticket int64
	Volume float64
	Price  float64
}
