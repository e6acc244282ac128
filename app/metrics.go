package app

import (
	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/ports"
	"github.com/shopspring/decimal"
)

// NopMetrics discards every event.
type NopMetrics struct{}

func (NopMetrics) LoginFailed(string) {}
func (NopMetrics) LoginLocked() {}
func (NopMetrics) PaymentRecorded(decimal.Decimal) {}
func (NopMetrics) StandingsComputed(map[billing.Status]int, decimal.Decimal) {}

var _ ports.Metrics = NopMetrics{}
