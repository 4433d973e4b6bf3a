package governance

import (
	"context"
	"fmt"

	"governance-sdk-sol/pkg/governance/accounts"
	"governance-sdk-sol/pkg/types"
)

func getAccount[T any](ctx context.Context, g *Governance, addr types.Pubkey, decode func([]byte) (*T, error)) (*accounts.ProgramAccount[T], error) {
	data, err := g.reader.FetchAccount(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("fetch account %s: %w", addr, err)
	}
	rec, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", addr, err)
	}
	return &accounts.ProgramAccount[T]{Pubkey: addr, Account: rec}, nil
}

func (g *Governance) GetRealm(ctx context.Context, addr types.Pubkey) (*accounts.ProgramAccount[accounts.Realm], error) {
	return getAccount(ctx, g, addr, accounts.DecodeRealm)
}

func (g *Governance) GetGovernance(ctx context.Context, addr types.Pubkey) (*accounts.ProgramAccount[accounts.Governance], error) {
	return getAccount(ctx, g, addr, accounts.DecodeGovernance)
}

func (g *Governance) GetProposal(ctx context.Context, addr types.Pubkey) (*accounts.ProgramAccount[accounts.Proposal], error) {
	return getAccount(ctx, g, addr, accounts.DecodeProposal)
}

func (g *Governance) GetTokenOwnerRecord(ctx context.Context, addr types.Pubkey) (*accounts.ProgramAccount[accounts.TokenOwnerRecord], error) {
	return getAccount(ctx, g, addr, accounts.DecodeTokenOwnerRecord)
}

func (g *Governance) GetVoteRecord(ctx context.Context, addr types.Pubkey) (*accounts.ProgramAccount[accounts.VoteRecord], error) {
	return getAccount(ctx, g, addr, accounts.DecodeVoteRecord)
}

func (g *Governance) GetRealmConfig(ctx context.Context, addr types.Pubkey) (*accounts.ProgramAccount[accounts.RealmConfigAccount], error) {
	return getAccount(ctx, g, addr, accounts.DecodeRealmConfig)
}
