package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"governance-sdk-sol/internal/journal"
	"governance-sdk-sol/internal/mq"
	"governance-sdk-sol/pkg/governance"
	"governance-sdk-sol/pkg/governance/accounts"
	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/logger"
	"governance-sdk-sol/pkg/types"
)

const bookkeepingTimeout = 5 * time.Second

// Submitter 发送交易并等待确认
type Submitter interface {
	SendAndConfirm(ctx context.Context, ixs []sdktypes.Instruction, feePayer sdktypes.Account, signers ...sdktypes.Account) (string, error)
}

// VoteService 构造指令 → 记录意图 → 提交 → 更新意图状态 → 发布回执。
// 失败不重试，由调用方根据 journal 中的状态决定。
type VoteService struct {
	gov               *governance.Governance
	submitter         Submitter
	journal           *journal.RedisJournal // 为空时不做去重
	sender            mq.JobSender          // 为空时不发布回执
	receiptTopic      string
	receiptPartitions int
}

type VoteServiceOption func(*VoteService)

func WithJournal(j *journal.RedisJournal) VoteServiceOption {
	return func(s *VoteService) { s.journal = j }
}

func WithReceipts(sender mq.JobSender, topic string, partitions int) VoteServiceOption {
	return func(s *VoteService) {
		s.sender = sender
		s.receiptTopic = topic
		s.receiptPartitions = partitions
	}
}

func NewVoteService(gov *governance.Governance, submitter Submitter, opts ...VoteServiceOption) *VoteService {
	s := &VoteService{gov: gov, submitter: submitter}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CastVote voter 同时作为 authority 与 payer
func (s *VoteService) CastVote(ctx context.Context, voter sdktypes.Account, vote accounts.Vote, p governance.CastVoteParams) (string, error) {
	authority := types.PubkeyFromSDK(voter.PublicKey)
	if p.VoterAuthority.IsZero() {
		p.VoterAuthority = authority
	}
	if p.Payer.IsZero() {
		p.Payer = authority
	}

	ix, err := s.gov.CastVoteInstruction(ctx, vote, p)
	if err != nil {
		return "", fmt.Errorf("build cast vote: %w", err)
	}
	intent := journal.Intent{
		Action:           journal.ActionCastVote,
		Proposal:         p.Proposal,
		VoterTokenRecord: p.VoterTokenOwnerRecord,
	}
	return s.submit(ctx, intent, ix, voter)
}

func (s *VoteService) RelinquishVote(ctx context.Context, voter sdktypes.Account, p governance.RelinquishVoteParams) (string, error) {
	ix, err := s.gov.RelinquishVoteInstruction(p)
	if err != nil {
		return "", fmt.Errorf("build relinquish vote: %w", err)
	}
	intent := journal.Intent{
		Action:           journal.ActionRelinquishVote,
		Proposal:         p.Proposal,
		VoterTokenRecord: p.VoterTokenOwnerRecord,
	}
	return s.submit(ctx, intent, ix, voter)
}

func (s *VoteService) submit(ctx context.Context, intent journal.Intent, ix sdktypes.Instruction, voter sdktypes.Account) (string, error) {
	if s.journal != nil {
		if err := s.journal.Begin(ctx, intent); err != nil {
			if !errors.Is(err, journal.ErrAlreadySubmitted) {
				err = fmt.Errorf("journal begin: %w", err)
			}
			return "", err
		}
	}

	sig, sendErr := s.submitter.SendAndConfirm(ctx, []sdktypes.Instruction{ix}, voter)

	status := submitStatus(sig, sendErr)
	if sendErr != nil {
		logger.Warnf("[VoteService] %s %s, signature=%q: %v", intent, status, sig, sendErr)
	} else {
		logger.Infof("[VoteService] %s confirmed: %s", intent, sig)
	}

	// 提交已结束，后续记录不受调用方取消影响
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	if s.journal != nil {
		var err error
		switch status {
		case journal.StatusConfirmed:
			err = s.journal.MarkConfirmed(bctx, intent, sig)
		case journal.StatusUnconfirmed:
			err = s.journal.MarkUnconfirmed(bctx, intent, sig)
		default:
			err = s.journal.MarkFailed(bctx, intent, sig)
		}
		if err != nil {
			logger.Errorf("[VoteService] journal update for %s failed: %v", intent, err)
		}
	}

	s.publishReceipt(bctx, intent, sig, status, sendErr)
	return sig, sendErr
}

// submitStatus 没有签名或链上执行失败记为 failed；已发送但未确认记为 unconfirmed
func submitStatus(sig string, err error) journal.Status {
	switch {
	case err == nil:
		return journal.StatusConfirmed
	case sig == "" || errors.Is(err, errs.ErrTransactionFailed):
		return journal.StatusFailed
	default:
		return journal.StatusUnconfirmed
	}
}

func (s *VoteService) publishReceipt(ctx context.Context, intent journal.Intent, sig string, status journal.Status, cause error) {
	if s.sender == nil {
		return
	}
	receipt := mq.VoteReceipt{
		Action:          uint8(intent.Action),
		Proposal:        intent.Proposal,
		VoterTokenOwner: intent.VoterTokenRecord,
		Signature:       sig,
		Status:          uint8(status),
		UnixMilli:       time.Now().UnixMilli(),
	}
	if cause != nil {
		receipt.Error = cause.Error()
	}

	job, err := mq.NewEventJob(s.receiptTopic, s.receiptPartitions, intent.Proposal, mq.EventVoteReceipt, receipt)
	if err != nil {
		logger.Errorf("[VoteService] encode receipt for %s: %v", intent, err)
		return
	}
	for _, f := range s.sender.Send(ctx, []*mq.KafkaJob{job}) {
		logger.Warnf("[VoteService] publish receipt for %s: %v", intent, f.Err)
	}
}
