package service

import (
	"context"
	"errors"
	"runtime/debug"
	"sync/atomic"
	"time"

	"governance-sdk-sol/internal/logic/grpc"
	"governance-sdk-sol/internal/mq"
	"governance-sdk-sol/pkg/governance/accounts"
	"governance-sdk-sol/pkg/logger"
	"governance-sdk-sol/pkg/types"
)

const maxBatchJobs = 256

// WatchService 消费账户更新，解码后按批发布到 Kafka
type WatchService struct {
	updates    <-chan *grpc.AccountUpdate
	sender     mq.JobSender
	program    types.Pubkey
	topic      string
	partitions int
	flush      time.Duration
	ctx        context.Context
	cancel     func(err error)
	done       chan struct{}
	started    atomic.Bool
}

func NewWatchService(updates <-chan *grpc.AccountUpdate, sender mq.JobSender, program types.Pubkey,
	topic string, partitions int, flush time.Duration) *WatchService {
	ctx, cancel := context.WithCancelCause(context.Background())
	if flush <= 0 {
		flush = 200 * time.Millisecond
	}
	return &WatchService{
		updates:    updates,
		sender:     sender,
		program:    program,
		topic:      topic,
		partitions: partitions,
		flush:      flush,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Start 阻塞直到 Stop 或输入通道关闭
func (s *WatchService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	defer close(s.done)

	ticker := time.NewTicker(s.flush)
	defer ticker.Stop()

	batch := make([]*mq.KafkaJob, 0, maxBatchJobs)
	for {
		select {
		case <-s.ctx.Done():
			s.publish(context.Background(), batch)
			return
		case u, ok := <-s.updates:
			if !ok {
				s.publish(context.Background(), batch)
				return
			}
			if job := s.toJob(u); job != nil {
				batch = append(batch, job)
			}
			if len(batch) >= maxBatchJobs {
				s.publish(s.ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			s.publish(s.ctx, batch)
			batch = batch[:0]
		}
	}
}

func (s *WatchService) Stop() {
	s.cancel(errors.New("WatchService stop"))
	if s.started.Load() {
		<-s.done
	}
}

// toJob 解码失败或不关心的账户返回 nil
func (s *WatchService) toJob(u *grpc.AccountUpdate) (job *mq.KafkaJob) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[WatchService] decode panic: account=%s slot=%d: %v\n%s", u.Pubkey, u.Slot, r, debug.Stack())
			job = nil
		}
	}()

	if u.Owner != s.program {
		return nil
	}
	// 账户关闭
	if len(u.Data) == 0 {
		return nil
	}
	rec, err := accounts.DecodeAny(u.Data)
	if err != nil {
		logger.Debugf("[WatchService] skip account %s at slot %d: %v", u.Pubkey, u.Slot, err)
		return nil
	}
	eventType, payload, ok := mq.BuildAccountEvent(u.Slot, u.Pubkey, rec)
	if !ok {
		return nil
	}
	job, err = mq.NewEventJob(s.topic, s.partitions, u.Pubkey, eventType, payload)
	if err != nil {
		logger.Errorf("[WatchService] encode event for %s: %v", u.Pubkey, err)
		return nil
	}
	return job
}

func (s *WatchService) publish(ctx context.Context, batch []*mq.KafkaJob) {
	if len(batch) == 0 {
		return
	}
	failed := s.sender.Send(ctx, batch)
	for _, f := range failed {
		logger.Warnf("[WatchService] publish to %s[%d] failed: %v", f.Job.Topic, f.Job.Partition, f.Err)
	}
	if len(failed) == 0 {
		logger.Debugf("[WatchService] published %d events", len(batch))
	}
}
