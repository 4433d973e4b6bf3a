package governance

import (
	"context"
	"errors"
	"fmt"

	"governance-sdk-sol/pkg/governance/accounts"
	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/types"
)

// listByField 对某种记录的每个布局版本分别做一次批量查询（判别符 + 字段 memcmp），
// 然后在本地复核判别符与字段。其他种类的账户被跳过，同种类但格式错误的账户使整个调用失败。
func listByField[T any](
	ctx context.Context,
	g *Governance,
	kind accounts.Kind,
	offset uint64,
	key types.Pubkey,
	decode func([]byte) (*T, error),
	field func(*T) types.Pubkey,
) ([]accounts.ProgramAccount[T], error) {
	var out []accounts.ProgramAccount[T]
	for _, t := range accounts.AccountTypesOf(kind) {
		keyed, err := g.reader.FetchAccountsByFilter(ctx, g.programID,
			AccountFilter{Offset: accounts.AccountTypeOffset, Bytes: []byte{byte(t)}},
			AccountFilter{Offset: offset, Bytes: key.Bytes()},
		)
		if err != nil {
			return nil, fmt.Errorf("fetch %s accounts (type %d): %w", kind, t, err)
		}
		for _, ka := range keyed {
			if len(ka.Data) == 0 || accounts.AccountType(ka.Data[0]) != t {
				continue
			}
			rec, err := decode(ka.Data)
			if err != nil {
				if errors.Is(err, errs.ErrUnexpectedAccountKind) {
					continue
				}
				return nil, fmt.Errorf("account %s: %w", ka.Pubkey, err)
			}
			if field(rec) != key {
				continue
			}
			out = append(out, accounts.ProgramAccount[T]{Pubkey: ka.Pubkey, Account: rec})
		}
	}
	return out, nil
}

// GetTokenOwnerRecordsFromPubkey 返回 user 在所有 realm 中的 TokenOwnerRecord
func (g *Governance) GetTokenOwnerRecordsFromPubkey(ctx context.Context, user types.Pubkey) ([]accounts.ProgramAccount[accounts.TokenOwnerRecord], error) {
	return listByField(ctx, g, accounts.KindTokenOwnerRecord, accounts.TokenOwnerRecordOwnerOffset, user,
		accounts.DecodeTokenOwnerRecord,
		func(r *accounts.TokenOwnerRecord) types.Pubkey { return r.GoverningTokenOwner })
}

// GetTokenOwnerRecordsForRealm 返回某个 realm 下的全部 TokenOwnerRecord
func (g *Governance) GetTokenOwnerRecordsForRealm(ctx context.Context, realm types.Pubkey) ([]accounts.ProgramAccount[accounts.TokenOwnerRecord], error) {
	return listByField(ctx, g, accounts.KindTokenOwnerRecord, accounts.TokenOwnerRecordRealmOffset, realm,
		accounts.DecodeTokenOwnerRecord,
		func(r *accounts.TokenOwnerRecord) types.Pubkey { return r.Realm })
}

// GetGovernanceForRealm 返回 realm 下所有治理账户（各变体、各版本）
func (g *Governance) GetGovernanceForRealm(ctx context.Context, realm types.Pubkey) ([]accounts.ProgramAccount[accounts.Governance], error) {
	return listByField(ctx, g, accounts.KindGovernance, accounts.GovernanceRealmOffset, realm,
		accounts.DecodeGovernance,
		func(r *accounts.Governance) types.Pubkey { return r.Realm })
}

// GetProposalsForGovernance 返回某个治理账户下的全部提案
func (g *Governance) GetProposalsForGovernance(ctx context.Context, governance types.Pubkey) ([]accounts.ProgramAccount[accounts.Proposal], error) {
	return listByField(ctx, g, accounts.KindProposal, accounts.ProposalGovernanceOffset, governance,
		accounts.DecodeProposal,
		func(r *accounts.Proposal) types.Pubkey { return r.Governance })
}

// GetVoteRecordsForProposal 返回某个提案的全部投票记录
func (g *Governance) GetVoteRecordsForProposal(ctx context.Context, proposal types.Pubkey) ([]accounts.ProgramAccount[accounts.VoteRecord], error) {
	return listByField(ctx, g, accounts.KindVoteRecord, accounts.VoteRecordProposalOffset, proposal,
		accounts.DecodeVoteRecord,
		func(r *accounts.VoteRecord) types.Pubkey { return r.Proposal })
}
