package governance

import (
	"context"
	"errors"
	"fmt"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"governance-sdk-sol/pkg/governance/accounts"
	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/governance/instruction"
	"governance-sdk-sol/pkg/types"
)

// CastVoteParams 投票参数。
// Governance / ProposalOwnerRecord 为零值时取自提案账户；ProposalAccount 为空时按 Proposal 地址读取。
// VoterWeightRecord 与 MaxVoterWeightRecord 要么都给，要么都不给。
type CastVoteParams struct {
	Realm                 types.Pubkey
	Governance            types.Pubkey
	Proposal              types.Pubkey
	ProposalOwnerRecord   types.Pubkey
	VoterTokenOwnerRecord types.Pubkey
	VoterAuthority        types.Pubkey
	GoverningTokenMint    types.Pubkey
	Payer                 types.Pubkey

	VoterWeightRecord    *types.Pubkey
	MaxVoterWeightRecord *types.Pubkey

	ProposalAccount *accounts.Proposal
}

// CastVoteInstruction 构造投票指令。校验顺序：选票权重、mint、插件账户对。
func (g *Governance) CastVoteInstruction(ctx context.Context, vote accounts.Vote, p CastVoteParams) (sdktypes.Instruction, error) {
	if err := vote.Validate(); err != nil {
		return sdktypes.Instruction{}, err
	}

	proposal := p.ProposalAccount
	if proposal == nil {
		pa, err := g.GetProposal(ctx, p.Proposal)
		if err != nil {
			return sdktypes.Instruction{}, err
		}
		proposal = pa.Account
	}
	if proposal.GoverningTokenMint != p.GoverningTokenMint {
		return sdktypes.Instruction{}, fmt.Errorf("%w: proposal mint %s, supplied %s",
			errs.ErrMintMismatch, proposal.GoverningTokenMint, p.GoverningTokenMint)
	}
	plugin, err := instruction.NewVoterWeightPlugin(p.VoterWeightRecord, p.MaxVoterWeightRecord)
	if err != nil {
		return sdktypes.Instruction{}, err
	}

	acc := instruction.CastVoteAccounts{
		Realm:                 p.Realm,
		Governance:            p.Governance,
		Proposal:              p.Proposal,
		ProposalOwnerRecord:   p.ProposalOwnerRecord,
		VoterTokenOwnerRecord: p.VoterTokenOwnerRecord,
		VoterAuthority:        p.VoterAuthority,
		GoverningTokenMint:    p.GoverningTokenMint,
		Payer:                 p.Payer,
	}
	if acc.Governance.IsZero() {
		acc.Governance = proposal.Governance
	}
	if acc.ProposalOwnerRecord.IsZero() {
		acc.ProposalOwnerRecord = proposal.TokenOwnerRecord
	}

	if plugin == nil {
		return g.builder.CastVote(vote, proposal, acc)
	}
	return g.builder.CastVoteWithPlugin(vote, proposal, acc, *plugin)
}

// RelinquishVoteParams 撤票参数。提案仍在投票中时需要同时提供 Authority 与 Beneficiary。
type RelinquishVoteParams struct {
	Realm                 types.Pubkey
	Governance            types.Pubkey
	Proposal              types.Pubkey
	VoterTokenOwnerRecord types.Pubkey
	GoverningTokenMint    types.Pubkey

	Authority   *types.Pubkey
	Beneficiary *types.Pubkey
}

// RelinquishVoteInstruction 构造撤票指令，不读取链上状态
func (g *Governance) RelinquishVoteInstruction(p RelinquishVoteParams) (sdktypes.Instruction, error) {
	refund, err := instruction.NewRefund(p.Authority, p.Beneficiary)
	if err != nil {
		return sdktypes.Instruction{}, err
	}
	return g.builder.RelinquishVote(instruction.RelinquishVoteAccounts{
		Realm:                 p.Realm,
		Governance:            p.Governance,
		Proposal:              p.Proposal,
		VoterTokenOwnerRecord: p.VoterTokenOwnerRecord,
		GoverningTokenMint:    p.GoverningTokenMint,
	}, refund)
}

// ResolveVoterWeightPlugin 读取 realm 配置，返回 mint 对应的代币配置。
// realm 没有配置账户时返回 (nil, nil)，表示未启用任何插件。
func (g *Governance) ResolveVoterWeightPlugin(ctx context.Context, realm, mint types.Pubkey) (*accounts.GoverningTokenConfig, error) {
	realmAcc, err := g.GetRealm(ctx, realm)
	if err != nil {
		return nil, err
	}
	if !realmAcc.Account.IsGoverningMint(mint) {
		return nil, fmt.Errorf("%w: %s is not a governing mint of realm %s", errs.ErrMintMismatch, mint, realm)
	}
	configAddr, err := g.DeriveRealmConfigAddress(realm)
	if err != nil {
		return nil, err
	}
	cfg, err := g.GetRealmConfig(ctx, configAddr)
	if errors.Is(err, errs.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tc := cfg.Account.TokenConfigFor(realmAcc.Account, mint)
	return &tc, nil
}
