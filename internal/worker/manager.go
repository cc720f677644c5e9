package worker

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"chirpfeed/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second
)

// EventHandler is what a worker runs for each message.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.FeedEvent) error
}

type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration
	// ConsumerPrefix namespaces consumer names, e.g. by hostname, so two
	// processes never share a pending list.
	ConsumerPrefix string
}

// Manager runs WorkerCount goroutines reading StreamFeed through
// ConsumerGroupFeed. A message is acked once its handler succeeds. A failed
// message stays in the consumer's pending list and is replayed on the next
// Start; unknown event types are acked and dropped.
type Manager struct {
	consumer queue.Consumer
	handler  EventHandler
	cfg      ManagerConfig

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}
	if cfg.ConsumerPrefix == "" {
		cfg.ConsumerPrefix = "worker"
	}
	return &Manager{consumer: consumer, handler: handler, cfg: cfg}
}

func (m *Manager) Start(ctx context.Context) error {
	if err := m.consumer.EnsureGroup(ctx, queue.StreamFeed, queue.ConsumerGroupFeed); err != nil {
		return err
	}

	ctx, m.cancel = context.WithCancel(ctx)
	for i := 1; i <= m.cfg.WorkerCount; i++ {
		m.wg.Add(1)
		go m.run(ctx, i, m.cfg.ConsumerPrefix+"-"+strconv.Itoa(i))
	}

	log.Printf("[Manager] started %d workers on %s", m.cfg.WorkerCount, queue.StreamFeed)
	return nil
}

// Stop cancels the workers and waits for the batch in flight to finish.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	log.Printf("[Manager] all workers stopped")
}

func (m *Manager) run(ctx context.Context, workerID int, consumer string) {
	defer m.wg.Done()

	m.drainPending(ctx, workerID, consumer)

	for ctx.Err() == nil {
		messages, err := m.consumer.Read(ctx, queue.StreamFeed, queue.ConsumerGroupFeed,
			consumer, m.cfg.BatchSize, m.cfg.BlockTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Worker-%d] read error: %v", workerID, err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		m.handle(ctx, workerID, messages)
	}
}

func (m *Manager) drainPending(ctx context.Context, workerID int, consumer string) {
	for ctx.Err() == nil {
		messages, err := m.consumer.ReadPending(ctx, queue.StreamFeed, queue.ConsumerGroupFeed,
			consumer, m.cfg.BatchSize)
		if err != nil {
			log.Printf("[Worker-%d] read pending error: %v", workerID, err)
			return
		}
		if len(messages) == 0 {
			return
		}
		log.Printf("[Worker-%d] replaying %d pending messages", workerID, len(messages))
		if m.handle(ctx, workerID, messages) == 0 {
			return
		}
	}
}

// handle runs each message and returns how many were acked.
func (m *Manager) handle(ctx context.Context, workerID int, messages []queue.Message) int {
	acked := 0
	for _, msg := range messages {
		if err := m.handler.HandleEvent(ctx, msg.Event); err != nil {
			log.Printf("[Worker-%d] msgID=%s type=%s: %v", workerID, msg.ID, msg.Event.Type, err)
			if !errors.Is(err, ErrUnknownEvent) {
				continue
			}
		}
		if err := m.consumer.Ack(ctx, queue.StreamFeed, queue.ConsumerGroupFeed, msg.ID); err != nil {
			log.Printf("[Worker-%d] ack msgID=%s: %v", workerID, msg.ID, err)
			continue
		}
		acked++
	}
	return acked
}
