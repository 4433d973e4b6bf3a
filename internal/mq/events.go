package mq

import (
	"governance-sdk-sol/internal/utils"
	"governance-sdk-sol/pkg/governance/accounts"
	"governance-sdk-sol/pkg/types"
)

// 事件类型（消息前 4 字节）
const (
	EventRealm            uint32 = 1
	EventGovernance       uint32 = 2
	EventProposal         uint32 = 3
	EventTokenOwnerRecord uint32 = 4
	EventVoteRecord       uint32 = 5
	EventRealmConfig      uint32 = 6

	EventVoteReceipt uint32 = 100
)

type RealmEvent struct {
	Slot                uint64
	Pubkey              types.Pubkey
	AccountType         uint8
	CommunityMint       types.Pubkey
	CouncilMint         *types.Pubkey
	Authority           *types.Pubkey
	VotingProposalCount uint16
	Name                string
}

type GovernanceEvent struct {
	Slot            uint64
	Pubkey          types.Pubkey
	AccountType     uint8
	Realm           types.Pubkey
	GovernedAccount types.Pubkey
	ProposalsCount  uint32
}

type ProposalEvent struct {
	Slot               uint64
	Pubkey             types.Pubkey
	AccountType        uint8
	Governance         types.Pubkey
	GoverningTokenMint types.Pubkey
	State              uint8
	OptionVoteWeights  []uint64
	DenyVoteWeight     *uint64
	AbstainVoteWeight  *uint64
	VetoVoteWeight     uint64
	VotingCompletedAt  *int64
	Name               string
}

type TokenOwnerRecordEvent struct {
	Slot                     uint64
	Pubkey                   types.Pubkey
	AccountType              uint8
	Realm                    types.Pubkey
	GoverningTokenMint       types.Pubkey
	GoverningTokenOwner      types.Pubkey
	DepositAmount            uint64
	UnrelinquishedVotesCount uint32
	GovernanceDelegate       *types.Pubkey
}

type VoteRecordEvent struct {
	Slot                uint64
	Pubkey              types.Pubkey
	AccountType         uint8
	Proposal            types.Pubkey
	GoverningTokenOwner types.Pubkey
	IsRelinquished      bool
	VoterWeight         uint64
	VoteKind            uint8
}

type RealmConfigEvent struct {
	Slot                 uint64
	Pubkey               types.Pubkey
	Realm                types.Pubkey
	CommunityVoterWeight *types.Pubkey
	CouncilVoterWeight   *types.Pubkey
	CommunityTokenType   uint8
	CouncilTokenType     uint8
}

// VoteReceipt 投票/撤票提交结果
type VoteReceipt struct {
	Action          uint8 // 0 = CastVote, 1 = RelinquishVote
	Proposal        types.Pubkey
	VoterTokenOwner types.Pubkey
	Signature       string
	Status          uint8 // 与 journal 状态一致
	Error           string
	UnixMilli       int64
}

// BuildAccountEvent 把解码后的账户记录转换为事件；不关心的记录类型返回 ok=false
func BuildAccountEvent(slot uint64, pubkey types.Pubkey, rec accounts.Record) (eventType uint32, payload any, ok bool) {
	switch r := rec.(type) {
	case *accounts.Realm:
		return EventRealm, RealmEvent{
			Slot:                slot,
			Pubkey:              pubkey,
			AccountType:         uint8(r.AccountType),
			CommunityMint:       r.CommunityMint,
			CouncilMint:         r.Config.CouncilMint,
			Authority:           r.Authority,
			VotingProposalCount: r.VotingProposalCount,
			Name:                r.Name,
		}, true
	case *accounts.Governance:
		return EventGovernance, GovernanceEvent{
			Slot:            slot,
			Pubkey:          pubkey,
			AccountType:     uint8(r.AccountType),
			Realm:           r.Realm,
			GovernedAccount: r.GovernedAccount,
			ProposalsCount:  r.ProposalsCount,
		}, true
	case *accounts.Proposal:
		weights := make([]uint64, 0, len(r.Options))
		for _, o := range r.Options {
			weights = append(weights, o.VoteWeight)
		}
		return EventProposal, ProposalEvent{
			Slot:               slot,
			Pubkey:             pubkey,
			AccountType:        uint8(r.AccountType),
			Governance:         r.Governance,
			GoverningTokenMint: r.GoverningTokenMint,
			State:              uint8(r.State),
			OptionVoteWeights:  weights,
			DenyVoteWeight:     r.DenyVoteWeight,
			AbstainVoteWeight:  r.AbstainVoteWeight,
			VetoVoteWeight:     r.VetoVoteWeight,
			VotingCompletedAt:  r.VotingCompletedAt,
			Name:               r.Name,
		}, true
	case *accounts.TokenOwnerRecord:
		return EventTokenOwnerRecord, TokenOwnerRecordEvent{
			Slot:                     slot,
			Pubkey:                   pubkey,
			AccountType:              uint8(r.AccountType),
			Realm:                    r.Realm,
			GoverningTokenMint:       r.GoverningTokenMint,
			GoverningTokenOwner:      r.GoverningTokenOwner,
			DepositAmount:            r.GoverningTokenDepositAmount,
			UnrelinquishedVotesCount: r.UnrelinquishedVotesCount,
			GovernanceDelegate:       r.GovernanceDelegate,
		}, true
	case *accounts.VoteRecord:
		return EventVoteRecord, VoteRecordEvent{
			Slot:                slot,
			Pubkey:              pubkey,
			AccountType:         uint8(r.AccountType),
			Proposal:            r.Proposal,
			GoverningTokenOwner: r.GoverningTokenOwner,
			IsRelinquished:      r.IsRelinquished,
			VoterWeight:         r.VoterWeight,
			VoteKind:            uint8(r.Vote.Kind),
		}, true
	case *accounts.RealmConfigAccount:
		return EventRealmConfig, RealmConfigEvent{
			Slot:                 slot,
			Pubkey:               pubkey,
			Realm:                r.Realm,
			CommunityVoterWeight: r.CommunityToken.VoterWeightAddin,
			CouncilVoterWeight:   r.CouncilToken.VoterWeightAddin,
			CommunityTokenType:   uint8(r.CommunityToken.TokenType),
			CouncilTokenType:     uint8(r.CouncilToken.TokenType),
		}, true
	default:
		return 0, nil, false
	}
}

// NewEventJob 编码事件并按 key（账户地址）选择分区，同一账户的事件落在同一分区以保持顺序
func NewEventJob(topic string, partitions int, key types.Pubkey, eventType uint32, payload any) (*KafkaJob, error) {
	value, err := utils.EncodeEvent(eventType, payload)
	if err != nil {
		return nil, err
	}
	return &KafkaJob{
		Topic:     topic,
		Partition: utils.PartitionForKey(key, partitions),
		Key:       key.Bytes(),
		Value:     value,
	}, nil
}
