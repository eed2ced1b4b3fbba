package dispatch

import (
	"context"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/rank11/sol-wallet-monitor/internal/models"
)

// Mirror re-publishes classified events to a secondary sink (RabbitMQ).
type Mirror interface {
	Publish(ctx context.Context, message interface{}) error
}

// Dispatcher formats classified events and hands them to the notification
// channel. Dispatch failures are logged and non-fatal; nothing is re-queued
// and classification is never rolled back.
type Dispatcher struct {
	notifier       Notifier
	mirror         Mirror
	minTransferSol float64
	ring           *EventRing
}

// New creates a Dispatcher. notifier and mirror may each be nil (dry-run and
// no mirror, respectively).
func New(notifier Notifier, mirror Mirror, minTransferSol float64, ring *EventRing) *Dispatcher {
	if ring == nil {
		ring = NewEventRing(0)
	}
	return &Dispatcher{
		notifier:       notifier,
		mirror:         mirror,
		minTransferSol: minTransferSol,
		ring:           ring,
	}
}

// Ring exposes the recent-event buffer for the status API.
func (d *Dispatcher) Ring() *EventRing {
	return d.ring
}

// Dispatch sends one event. Suppressed transfers are recorded in the ring
// but not notified: token-denominated distributions are not value
// transfers, and dust below the minimum is not worth a message.
func (d *Dispatcher) Dispatch(ctx context.Context, event *models.TradeEvent) {
	record := RecordedEvent{TradeEvent: *event}

	if d.suppress(event) {
		record.Suppressed = true
		d.ring.Add(record)
		log.WithFields(log.Fields{
			"wallet":    event.Wallet.Address,
			"kind":      event.Kind,
			"signature": event.Signature,
		}).Debug("Event suppressed")
		return
	}

	text := FormatMessage(event)

	if d.notifier != nil {
		if err := d.notifier.Send(ctx, text); err != nil {
			record.SendError = err.Error()
			log.WithFields(log.Fields{
				"wallet":    event.Wallet.Address,
				"signature": event.Signature,
				"error":     err.Error(),
			}).Error("Notification dispatch failed")
		}
	}

	if d.mirror != nil {
		if err := d.mirror.Publish(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"signature": event.Signature,
				"error":     err.Error(),
			}).Warn("Event mirror publish failed")
		}
	}

	d.ring.Add(record)
}

func (d *Dispatcher) suppress(event *models.TradeEvent) bool {
	if event.Kind != models.EventTransfer {
		return false
	}
	if event.TokenDenominated {
		return true
	}
	return math.Abs(event.NativeDelta) < d.minTransferSol
}
