// Package delivery advances per-recipient message receipts and notifies
// senders of status changes.
package delivery

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/chatrizz/backend/internal/errors"
	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/metrics"
	"github.com/chatrizz/backend/internal/models"
	"github.com/chatrizz/backend/internal/store"
	"go.uber.org/zap"
)

// lockStripes bounds memory for the per-key serialization locks
const lockStripes = 64

// StatusNotifier receives fire-and-forget status updates addressed to the
// message sender. Implementations must not block.
type StatusNotifier interface {
	NotifyStatus(senderID, messageID, recipientID string, state models.DeliveryState)
}

// Tracker serializes receipt transitions per (message, recipient) pair and
// enforces the monotonic sent -> delivered -> read state machine.
type Tracker struct {
	store    *store.Store
	notifier StatusNotifier
	locks    [lockStripes]sync.Mutex
}

// New creates a Tracker. notifier may be nil.
func New(st *store.Store, notifier StatusNotifier) *Tracker {
	return &Tracker{store: st, notifier: notifier}
}

func (t *Tracker) lockFor(messageID, recipientID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(messageID))
	h.Write([]byte{0})
	h.Write([]byte(recipientID))
	return &t.locks[h.Sum32()%lockStripes]
}

// MarkDelivered transitions the recipient's receipt to delivered.
// Already-delivered or read receipts are left untouched (no-op, not an
// error). Returns UnknownMessage or NotRecipient on validation failure.
func (t *Tracker) MarkDelivered(ctx context.Context, messageID, recipientID string) error {
	return t.advance(ctx, messageID, recipientID, models.DeliveryDelivered)
}

// MarkRead transitions the recipient's receipt to read from either sent or
// delivered. Same no-op and error rules as MarkDelivered.
func (t *Tracker) MarkRead(ctx context.Context, messageID, recipientID string) error {
	return t.advance(ctx, messageID, recipientID, models.DeliveryRead)
}

func (t *Tracker) advance(ctx context.Context, messageID, recipientID string, target models.DeliveryState) error {
	mu := t.lockFor(messageID, recipientID)
	mu.Lock()
	defer mu.Unlock()

	msg, err := t.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}

	receipt := msg.ReceiptFor(recipientID)
	if receipt == nil {
		return errors.NotRecipient(recipientID, messageID)
	}

	// Rank comparison keeps the state monotonic; regressive updates are
	// ignored rather than applied.
	if receipt.State.Rank() >= target.Rank() {
		metrics.Get().ReceiptRegressionsIgnored.Inc()
		return nil
	}

	now := time.Now().UTC()
	err = t.store.DB().WithContext(ctx).
		Model(&models.MessageReceipt{}).
		Where("id = ?", receipt.ID).
		Updates(map[string]interface{}{
			"state":    target,
			"state_at": now,
		}).Error
	if err != nil {
		return err
	}

	metrics.Get().ReceiptTransitions.WithLabelValues(string(target)).Inc()
	logger.Log.Debug("Receipt advanced",
		logger.WithMessageID(messageID),
		logger.WithUserID(recipientID),
		zap.String("state", string(target)))

	if t.notifier != nil {
		t.notifier.NotifyStatus(msg.SenderID, messageID, recipientID, target)
	}

	return nil
}
