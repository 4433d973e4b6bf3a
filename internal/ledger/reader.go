// Package ledger 基于 Solana JSON-RPC 实现账户读取与交易提交。
package ledger

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus"

	"governance-sdk-sol/internal/config"
	"governance-sdk-sol/pkg/governance"
	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/types"
)

// RPCLedger 实现 governance.LedgerReader 与交易提交
type RPCLedger struct {
	client         *client.Client
	commitment     rpc.Commitment
	requestTimeout time.Duration
	confirmTimeout time.Duration
	pollInterval   time.Duration
	metrics        *rpcMetrics
}

var _ governance.LedgerReader = (*RPCLedger)(nil)

func NewRPCLedger(cfg config.RpcConfig, registry prometheus.Registerer) (*RPCLedger, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("rpc endpoint not configured")
	}
	commitment, err := parseCommitment(cfg.Commitment)
	if err != nil {
		return nil, err
	}
	l := &RPCLedger{
		client:         client.NewClient(cfg.Endpoint),
		commitment:     commitment,
		requestTimeout: cfg.RequestTimeout(),
		confirmTimeout: cfg.ConfirmTimeout(),
		pollInterval:   cfg.PollInterval(),
		metrics:        newRPCMetrics(registry),
	}
	if l.client == nil {
		return nil, errors.New("rpc client init failed")
	}
	if l.pollInterval <= 0 {
		l.pollInterval = 500 * time.Millisecond
	}
	return l, nil
}

func parseCommitment(s string) (rpc.Commitment, error) {
	switch rpc.Commitment(s) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return rpc.Commitment(s), nil
	case "":
		return rpc.CommitmentConfirmed, nil
	default:
		return "", fmt.Errorf("unknown commitment %q", s)
	}
}

func (l *RPCLedger) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.requestTimeout)
}

// FetchAccount 读取账户数据，账户不存在时返回 errs.ErrAccountNotFound
func (l *RPCLedger) FetchAccount(ctx context.Context, addr types.Pubkey) ([]byte, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	info, err := l.client.GetAccountInfoWithConfig(ctx, addr.String(), client.GetAccountInfoConfig{
		Commitment: l.commitment,
	})
	l.metrics.observe("getAccountInfo", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo %s: %w", addr, err)
	}
	// 不存在的账户返回零值
	if info.Lamports == 0 && len(info.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", errs.ErrAccountNotFound, addr)
	}
	return info.Data, nil
}

// FetchAccountsByFilter getProgramAccounts + memcmp 过滤
func (l *RPCLedger) FetchAccountsByFilter(ctx context.Context, program types.Pubkey, filters ...governance.AccountFilter) ([]governance.KeyedAccount, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	rpcFilters := make([]rpc.GetProgramAccountsConfigFilter, 0, len(filters))
	for _, f := range filters {
		rpcFilters = append(rpcFilters, rpc.GetProgramAccountsConfigFilter{
			MemCmp: &rpc.GetProgramAccountsConfigFilterMemCmp{
				Offset: f.Offset,
				Bytes:  base58.Encode(f.Bytes),
			},
		})
	}

	start := time.Now()
	res, err := l.client.RpcClient.GetProgramAccountsWithConfig(ctx, program.String(), rpc.GetProgramAccountsConfig{
		Encoding:   rpc.AccountEncodingBase64,
		Commitment: l.commitment,
		Filters:    rpcFilters,
	})
	if err == nil && res.Error != nil {
		err = res.Error
	}
	l.metrics.observe("getProgramAccounts", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("getProgramAccounts %s: %w", program, err)
	}

	out := make([]governance.KeyedAccount, 0, len(res.Result))
	for _, a := range res.Result {
		key, err := types.TryPubkeyFromBase58(a.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("getProgramAccounts %s: bad pubkey %q: %w", program, a.Pubkey, err)
		}
		data, err := decodeAccountData(a.Account.Data)
		if err != nil {
			return nil, fmt.Errorf("getProgramAccounts %s: account %s: %w", program, a.Pubkey, err)
		}
		out = append(out, governance.KeyedAccount{Pubkey: key, Data: data})
	}
	return out, nil
}

// decodeAccountData 解析 ["<base64>", "base64"] 形式的账户数据
func decodeAccountData(raw any) ([]byte, error) {
	pair, ok := raw.([]any)
	if !ok || len(pair) != 2 {
		return nil, fmt.Errorf("unexpected account data %T", raw)
	}
	encoding, _ := pair[1].(string)
	if encoding != string(rpc.AccountEncodingBase64) {
		return nil, fmt.Errorf("unexpected account data encoding %q", encoding)
	}
	text, ok := pair[0].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected account data %T", pair[0])
	}
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return data, nil
}
