package service

// Wire-формат моста. Поля — как их отдаёт терминал MT5,
// наружу конвертируем в internal/models.

type quoteResponse struct {
	Symbol       string  `json:"symbol"`
	Price        float64 `json:"price"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	SpreadPoints float64 `json:"spread_points"`
	Time         int64   `json:"time"` // unix seconds
}

type symbolInfoResponse struct {
	Symbol     string  `json:"symbol"`
	VolumeMin  float64 `json:"volume_min"`
	VolumeMax  float64 `json:"volume_max"`
	VolumeStep float64 `json:"volume_step"`
	Point      float64 `json:"point"`
	TickSize   float64 `json:"trade_tick_size"`
	TickValue  float64 `json:"trade_tick_value"`
	StopsLevel float64 `json:"trade_stops_level"`
	Digits     int     `json:"digits"`
}

type accountResponse struct {
	Equity     float64 `json:"equity"`
	MarginFree float64 `json:"margin_free"`
}

type positionRow struct {
	Ticket    int64   `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Type      int     `json:"type"` // 0 = buy, 1 = sell
	PriceOpen float64 `json:"price_open"`
	PriceCur  float64 `json:"price_current"`
	Volume    float64 `json:"volume"`
	SL        float64 `json:"sl"`
	TP        float64 `json:"tp"`
	Profit    float64 `json:"profit"`
	Time      int64   `json:"time"`
}

type dealRow struct {
	PositionID int64   `json:"position_id"`
	Entry      int     `json:"entry"` // 0 = in, 1 = out
	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	Profit     float64 `json:"profit"`
	Time       int64   `json:"time"`
}

type calcMarginRequest struct {
	Side   string  `json:"side"`
	Symbol string  `json:"symbol"`
	Volume float64 `json:"volume"`
	Price  float64 `json:"price"`
}

type calcMarginResponse struct {
	Margin *float64 `json:"margin"` // null если терминал не смог посчитать
}

type orderSendRequest struct {
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Volume    float64 `json:"volume"`
	Price     float64 `json:"price"`
	SL        float64 `json:"sl"`
	TP        float64 `json:"tp"`
	Deviation int     `json:"deviation"`
	Comment   string  `json:"comment"`
}

type orderSendResponse struct {
	Retcode int     `json:"retcode"`
	Ticket  int64   `json:"ticket"`
	Volume  float64 `json:"volume"`
	Price   float64 `json:"price"`
	Comment string  `json:"comment"`
}

type modifyStopRequest struct {
	Ticket int64   `json:"ticket"`
	SL     float64 `json:"sl"`
	TP     float64 `json:"tp"`
}

type closePositionRequest struct {
	Ticket int64 `json:"ticket"`
}

type okResponse struct {
	OK      bool   `json:"ok"`
	Retcode int    `json:"retcode"`
	Comment string `json:"comment"`
}

// TRADE_RETCODE_DONE в терминологии MT5: ордер исполнен полностью.
// Модель исполнения all-or-nothing, частичных филлов не бывает.
const retcodeDone = 10009
