package activitypub

import (
	"context"
	"sync"
	"time"

	"github.com/avercourt/windlass/domain"
	"github.com/google/uuid"
)

const (
	deliveryScanInterval = 10 * time.Second
	deliveryBatchSize    = 50
	deliveryMaxAttempts  = 10
)

// Backoff schedule in minutes; attempts beyond the table reuse the
// last entry until the give-up threshold.
var deliveryBackoff = []int{1, 5, 15, 60, 240, 1440}

// StartDeliveryWorkers drains the delivery queue until ctx is
// cancelled. One scanner feeds a pool of workers so one slow remote
// inbox cannot stall the rest of a fan-out.
func (e *Engine) StartDeliveryWorkers(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	e.log.Infof("Starting %d delivery workers", workers)

	jobs := make(chan domain.DeliveryQueueItem)

	for i := 0; i < workers; i++ {
		go func() {
			for item := range jobs {
				e.processDelivery(&item)
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(deliveryScanInterval)
		defer ticker.Stop()
		defer close(jobs)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.scanDeliveryQueue(ctx, jobs)
			}
		}
	}()
}

func (e *Engine) scanDeliveryQueue(ctx context.Context, jobs chan<- domain.DeliveryQueueItem) {
	err, items := e.store.ReadPendingDeliveries(deliveryBatchSize)
	if err != nil {
		e.log.Errorf("DeliveryWorker: failed to read queue: %v", err)
		return
	}
	if items == nil || len(*items) == 0 {
		return
	}

	for _, item := range *items {
		// A row stays pending in the store while a worker POSTs it, so
		// a later scan would see it again. The claim keeps each row on
		// exactly one worker at a time.
		if !e.inflight.claim(item.Id) {
			continue
		}
		select {
		case <-ctx.Done():
			e.inflight.release(item.Id)
			return
		case jobs <- item:
		}
	}
}

func (e *Engine) processDelivery(item *domain.DeliveryQueueItem) {
	defer e.inflight.release(item.Id)

	if err := e.Deliver(item.InboxURI, []byte(item.ActivityJSON)); err != nil {
		item.Attempts++
		if item.Attempts >= deliveryMaxAttempts {
			e.log.Warnf("DeliveryWorker: giving up on %s after %d attempts", item.InboxURI, item.Attempts)
			if derr := e.store.DeleteDelivery(item.Id); derr != nil {
				e.log.Errorf("DeliveryWorker: failed to drop delivery %s: %v", item.Id, derr)
			}
			return
		}

		backoffMinutes := deliveryBackoff[min(item.Attempts-1, len(deliveryBackoff)-1)]
		nextRetry := time.Now().Add(time.Duration(backoffMinutes) * time.Minute)
		e.log.Warnf("DeliveryWorker: delivery to %s failed (attempt %d), retry in %dm: %v",
			item.InboxURI, item.Attempts, backoffMinutes, err)
		if uerr := e.store.UpdateDeliveryAttempt(item.Id, item.Attempts, nextRetry); uerr != nil {
			e.log.Errorf("DeliveryWorker: failed to reschedule delivery %s: %v", item.Id, uerr)
		}
		return
	}

	if err := e.store.DeleteDelivery(item.Id); err != nil {
		e.log.Errorf("DeliveryWorker: failed to remove delivered item %s: %v", item.Id, err)
	}
}

// inflightSet tracks queue rows currently held by a worker.
type inflightSet struct {
	mu  sync.Mutex
	ids map[uuid.UUID]struct{}
}

func newInflightSet() *inflightSet {
	return &inflightSet{ids: make(map[uuid.UUID]struct{})}
}

func (s *inflightSet) claim(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *inflightSet) release(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}
