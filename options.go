package outship

import (
	"github.com/outship-io/outship/internal/clock"
	"github.com/outship-io/outship/internal/constant"
	"go.uber.org/zap"
)

// EngineOptions configures the reconciliation engines.
type EngineOptions struct {
	// Logger receives structured logs. The default discards them.
	Logger *zap.Logger
	// Clock is an abstraction of time operations, allowing control over time during tests.
	Clock clock.Clock
	// SyncConcurrency is the number of shipments the work order sync
	// reconciles in parallel. Each shipment is handled by one worker.
	SyncConcurrency int
	// MaxShipmentWeight is the weight above which a shipment is flagged.
	MaxShipmentWeight Decimal
	// TimezoneTable maps location timezones to timezone list keys.
	TimezoneTable TimezoneTable
	// LegacyShippable marks every new line shippable regardless of item type.
	LegacyShippable bool
}

func WithLogger(logger *zap.Logger) func(*EngineOptions) {
	return func(o *EngineOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func WithClock(c clock.Clock) func(*EngineOptions) {
	return func(o *EngineOptions) {
		o.Clock = c
	}
}

func WithSyncConcurrency(n int) func(*EngineOptions) {
	return func(o *EngineOptions) {
		o.SyncConcurrency = n
	}
}

func WithMaxShipmentWeight(w Decimal) func(*EngineOptions) {
	return func(o *EngineOptions) {
		o.MaxShipmentWeight = w
	}
}

func WithTimezoneTable(t TimezoneTable) func(*EngineOptions) {
	return func(o *EngineOptions) {
		o.TimezoneTable = t
	}
}

func WithLegacyShippable(legacy bool) func(*EngineOptions) {
	return func(o *EngineOptions) {
		o.LegacyShippable = legacy
	}
}

func newEngineOptions(optFns []func(*EngineOptions)) *EngineOptions {
	o := &EngineOptions{
		Logger:            zap.NewNop(),
		Clock:             &clock.RealClock{},
		SyncConcurrency:   constant.DefaultSyncConcurrency,
		MaxShipmentWeight: MustParseDecimal(constant.DefaultMaxShipmentWeight),
		TimezoneTable:     DefaultTimezoneTable(),
	}
	for _, opt := range optFns {
		opt(o)
	}
	if o.SyncConcurrency < 1 {
		o.SyncConcurrency = 1
	}
	return o
}
