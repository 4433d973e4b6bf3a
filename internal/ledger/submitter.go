package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/rpc"
	sdktypes "github.com/blocto/solana-go-sdk/types"

	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/logger"
)

var commitmentRank = map[rpc.Commitment]int{
	rpc.CommitmentProcessed: 1,
	rpc.CommitmentConfirmed: 2,
	rpc.CommitmentFinalized: 3,
}

// SendAndConfirm 签名并发送交易，轮询签名状态直到达到配置的 commitment。
// 交易已发送但确认失败时，返回的签名非空，调用方可以据此查询最终结果。
// 不做自动重试。
func (l *RPCLedger) SendAndConfirm(ctx context.Context, ixs []sdktypes.Instruction, feePayer sdktypes.Account, signers ...sdktypes.Account) (string, error) {
	sig, err := l.send(ctx, ixs, feePayer, signers)
	if err != nil {
		l.metrics.submissions.WithLabelValues("send_failed").Inc()
		return "", err
	}
	if err := l.confirm(ctx, sig); err != nil {
		l.metrics.submissions.WithLabelValues("confirm_failed").Inc()
		return sig, err
	}
	l.metrics.submissions.WithLabelValues("confirmed").Inc()
	return sig, nil
}

func (l *RPCLedger) send(ctx context.Context, ixs []sdktypes.Instruction, feePayer sdktypes.Account, signers []sdktypes.Account) (string, error) {
	rctx, cancel := l.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	latest, err := l.client.GetLatestBlockhash(rctx)
	l.metrics.observe("getLatestBlockhash", time.Since(start).Seconds(), err)
	if err != nil {
		return "", errs.Submission("get blockhash", err)
	}

	tx, err := sdktypes.NewTransaction(sdktypes.NewTransactionParam{
		Message: sdktypes.NewMessage(sdktypes.NewMessageParam{
			FeePayer:        feePayer.PublicKey,
			RecentBlockhash: latest.Blockhash,
			Instructions:    ixs,
		}),
		Signers: uniqueSigners(feePayer, signers),
	})
	if err != nil {
		return "", errs.Submission("sign", err)
	}

	start = time.Now()
	sig, err := l.client.SendTransaction(rctx, tx)
	l.metrics.observe("sendTransaction", time.Since(start).Seconds(), err)
	if err != nil {
		return "", errs.Submission("send", err)
	}
	logger.Infof("[Ledger] transaction sent: %s", sig)
	return sig, nil
}

func uniqueSigners(feePayer sdktypes.Account, signers []sdktypes.Account) []sdktypes.Account {
	out := []sdktypes.Account{feePayer}
	for _, s := range signers {
		dup := false
		for _, o := range out {
			if o.PublicKey == s.PublicKey {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, s)
		}
	}
	return out
}

func (l *RPCLedger) confirm(ctx context.Context, sig string) error {
	if l.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.confirmTimeout)
		defer cancel()
	}
	want := commitmentRank[l.commitment]

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()
	for {
		start := time.Now()
		status, err := l.client.GetSignatureStatus(ctx, sig)
		l.metrics.observe("getSignatureStatuses", time.Since(start).Seconds(), err)
		switch {
		case err != nil:
			logger.Warnf("[Ledger] getSignatureStatus %s failed: %v", sig, err)
		case status == nil:
			// 节点尚未看到该交易
		case status.Err != nil:
			return errs.Submission("confirm", fmt.Errorf("%w: %s: %v", errs.ErrTransactionFailed, sig, status.Err))
		case status.ConfirmationStatus != nil && commitmentRank[*status.ConfirmationStatus] >= want:
			return nil
		}

		select {
		case <-ctx.Done():
			return errs.Submission("confirm", fmt.Errorf("transaction %s not confirmed: %w", sig, ctx.Err()))
		case <-ticker.C:
		}
	}
}
