package service

import (
	"context"
	"errors"
	"sync"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"governance-sdk-sol/internal/mq"
	"governance-sdk-sol/internal/testutil"
	"governance-sdk-sol/pkg/governance"
	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/types"
)

var (
	realm      = testutil.Key(1)
	mint       = testutil.Key(3)
	govKey     = testutil.Key(7)
	proposal   = testutil.Key(10)
	ownerTOR   = testutil.Key(20)
	voterTOR   = testutil.Key(21)
	programKey = testutil.Key(30)
)

type mapLedger map[types.Pubkey][]byte

func (m mapLedger) FetchAccount(_ context.Context, addr types.Pubkey) ([]byte, error) {
	data, ok := m[addr]
	if !ok {
		return nil, errs.ErrAccountNotFound
	}
	return data, nil
}

func (m mapLedger) FetchAccountsByFilter(context.Context, types.Pubkey, ...governance.AccountFilter) ([]governance.KeyedAccount, error) {
	return nil, errors.New("not used")
}

type fakeSubmitter struct {
	mu     sync.Mutex
	calls  int
	ixs    [][]sdktypes.Instruction
	payers []sdktypes.Account
	sig    string
	err    error
	// cancel 非空时模拟调用方在提交途中取消
	cancel context.CancelFunc
}

func (f *fakeSubmitter) SendAndConfirm(ctx context.Context, ixs []sdktypes.Instruction, feePayer sdktypes.Account, _ ...sdktypes.Account) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ixs = append(f.ixs, ixs)
	f.payers = append(f.payers, feePayer)
	if f.cancel != nil {
		f.cancel()
		return f.sig, ctx.Err()
	}
	return f.sig, f.err
}

type fakeSender struct {
	mu   sync.Mutex
	jobs []*mq.KafkaJob
	fail bool
}

func (f *fakeSender) Send(_ context.Context, jobs []*mq.KafkaJob) []mq.KafkaSendResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	var failed []mq.KafkaSendResult
	for _, j := range jobs {
		if f.fail {
			failed = append(failed, mq.KafkaSendResult{Job: j, Err: errors.New("broker down")})
			continue
		}
		f.jobs = append(f.jobs, j)
	}
	return failed
}

func (f *fakeSender) sent() []*mq.KafkaJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*mq.KafkaJob(nil), f.jobs...)
}

func proposalData() []byte {
	return testutil.MustSerialize(testutil.ProposalV2{
		AccountType:        testutil.TypeProposalV2,
		Governance:         govKey,
		GoverningTokenMint: mint,
		State:              2,
		TokenOwnerRecord:   ownerTOR,
		Options:            []testutil.ProposalOption{{Label: "Approve"}},
		DenyVoteWeight:     testutil.Ptr[uint64](0),
		Name:               "proposal",
	})
}
