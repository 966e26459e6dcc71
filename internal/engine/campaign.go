package engine

import (
	"strings"
	"sync"
	"time"

	"gold_bot/internal/models"
)

// Campaign — rolling-window контроль частоты входов по ключу
// (symbol, side, tier). Allow ничего не резервирует: Record зовётся
// только после подтверждённой отправки ордера.
type Campaign struct {
	mu         sync.Mutex
	window     time.Duration
	maxPerTier map[models.Tier]int
	defaultCap int
	minSpacing time.Duration

	events map[string][]time.Time
	lastAt map[string]time.Time
}

func NewCampaign(cfg models.CampaignSettings) *Campaign {
	return &Campaign{
		window:     cfg.Window,
		maxPerTier: cfg.MaxPerTier,
		defaultCap: cfg.DefaultCap,
		minSpacing: cfg.MinSpacing,
		events:     make(map[string][]time.Time),
		lastAt:     make(map[string]time.Time),
	}
}

func campaignKey(symbol string, side models.Side, tier models.Tier) string {
	return symbol + ":" + string(side) + ":" + strings.ToUpper(tier)
}

// Allow — false, если ключ ещё в min-spacing после прошлого входа
// или окно уже выбрано.
func (c *Campaign) Allow(symbol string, side models.Side, tier models.Tier, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := campaignKey(symbol, side, tier)

	if last, ok := c.lastAt[key]; ok && now.Sub(last) < c.minSpacing {
		return false
	}

	q := c.evict(key, now)
	return len(q) < c.capFor(tier)
}

// Record фиксирует подтверждённый вход.
func (c *Campaign) Record(symbol string, side models.Side, tier models.Tier, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := campaignKey(symbol, side, tier)
	c.events[key] = append(c.evict(key, now), now)
	c.lastAt[key] = now
}

// Count — текущее число входов в окне по ключу.
func (c *Campaign) Count(symbol string, side models.Side, tier models.Tier, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.evict(campaignKey(symbol, side, tier), now))
}

// Seed восстанавливает окно из хранилища после рестарта, чтобы падение
// между отправкой ордера и Record не обнуляло бюджет кампании.
func (c *Campaign) Seed(symbol string, side models.Side, tier models.Tier, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := campaignKey(symbol, side, tier)
	c.events[key] = append(c.events[key], at)
	if at.After(c.lastAt[key]) {
		c.lastAt[key] = at
	}
}

// evict лениво выкидывает события старше окна; вызывать под мьютексом.
func (c *Campaign) evict(key string, now time.Time) []time.Time {
	q := c.events[key]
	i := 0
	for i < len(q) && now.Sub(q[i]) > c.window {
		i++
	}
	if i > 0 {
		q = q[i:]
		c.events[key] = q
	}
	return q
}

func (c *Campaign) capFor(tier models.Tier) int {
	if n, ok := c.maxPerTier[strings.ToUpper(tier)]; ok {
		return n
	}
	return c.defaultCap
}
