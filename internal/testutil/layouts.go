// Package testutil 提供测试用的链上账户布局，通过 borsh 序列化生成与链上一致的账户字节。
package testutil

import (
	"github.com/near/borsh-go"

	"governance-sdk-sol/pkg/types"
)

// 与 accounts 包中的判别符保持一致
const (
	TypeRealmV1            uint8 = 1
	TypeTokenOwnerRecordV1 uint8 = 2
	TypeGovernanceV1       uint8 = 3
	TypeProposalV1         uint8 = 5
	TypeVoteRecordV1       uint8 = 7
	TypeRealmConfig        uint8 = 11
	TypeVoteRecordV2       uint8 = 12
	TypeProposalV2         uint8 = 14
	TypeRealmV2            uint8 = 16
	TypeTokenOwnerRecordV2 uint8 = 17
	TypeGovernanceV2       uint8 = 18
)

type Realm struct {
	AccountType                   uint8
	CommunityMint                 types.Pubkey
	UseCommunityVoterWeightAddin  uint8
	UseMaxCommunityVoterWeight    uint8
	Reserved                      [6]byte
	MinCommunityWeightToCreateGov uint64
	MaxVoterWeightSourceType      uint8
	MaxVoterWeightSourceValue     uint64
	CouncilMint                   *types.Pubkey
	Reserved2                     [6]byte
	VotingProposalCount           uint16
	Authority                     *types.Pubkey
	Name                          string
}

type TokenOwnerRecord struct {
	AccountType                 uint8
	Realm                       types.Pubkey
	GoverningTokenMint          types.Pubkey
	GoverningTokenOwner         types.Pubkey
	GoverningTokenDepositAmount uint64
	UnrelinquishedVotesCount    uint32
	TotalVotesCount             uint32
	OutstandingProposalCount    uint8
	Version                     uint8
	Reserved                    [6]byte
	GovernanceDelegate          *types.Pubkey
}

// Threshold 仅覆盖带参数的阈值（YesVotePercentage / QuorumPercentage）
type Threshold struct {
	Type  uint8
	Value uint8
}

type GovernanceV2 struct {
	AccountType                uint8
	Realm                      types.Pubkey
	GovernedAccount            types.Pubkey
	ProposalsCount             uint32
	CommunityVoteThreshold     Threshold
	MinCommunityWeightToCreate uint64
	MinTransactionHoldUpTime   uint32
	VotingBaseTime             uint32
	CommunityVoteTipping       uint8
	CouncilVoteThreshold       Threshold
	CouncilVetoVoteThreshold   Threshold
	MinCouncilWeightToCreate   uint64
	CouncilVoteTipping         uint8
	CommunityVetoVoteThreshold Threshold
	VotingCoolOffTime          uint32
	DepositExemptProposalCount uint8
}

type GovernanceV1 struct {
	AccountType                uint8
	Realm                      types.Pubkey
	GovernedAccount            types.Pubkey
	ProposalsCount             uint32
	VoteThreshold              Threshold
	MinCommunityWeightToCreate uint64
	MinInstructionHoldUpTime   uint32
	MaxVotingTime              uint32
	VoteWeightSource           uint8
	ProposalCoolOffTime        uint32
	MinCouncilWeightToCreate   uint64
}

type ProposalOption struct {
	Label                     string
	VoteWeight                uint64
	VoteResult                uint8
	TransactionsExecutedCount uint16
	TransactionsCount         uint16
	TransactionsNextIndex     uint16
}

// ProposalV2 单选提案布局
type ProposalV2 struct {
	AccountType               uint8
	Governance                types.Pubkey
	GoverningTokenMint        types.Pubkey
	State                     uint8
	TokenOwnerRecord          types.Pubkey
	SignatoriesCount          uint8
	SignatoriesSignedOffCount uint8
	VoteType                  uint8
	Options                   []ProposalOption
	DenyVoteWeight            *uint64
	Reserved1                 uint8
	AbstainVoteWeight         *uint64
	StartVotingAt             *int64
	DraftAt                   int64
	SigningOffAt              *int64
	VotingAt                  *int64
	VotingAtSlot              *uint64
	VotingCompletedAt         *int64
	ExecutingAt               *int64
	ClosedAt                  *int64
	ExecutionFlags            uint8
	MaxVoteWeight             *uint64
	MaxVotingTime             *uint32
	VoteThreshold             *Threshold
	Reserved                  [64]byte
	Name                      string
	DescriptionLink           string
	VetoVoteWeight            uint64
}

type ProposalV1 struct {
	AccountType               uint8
	Governance                types.Pubkey
	GoverningTokenMint        types.Pubkey
	State                     uint8
	TokenOwnerRecord          types.Pubkey
	SignatoriesCount          uint8
	SignatoriesSignedOffCount uint8
	YesVotesCount             uint64
	NoVotesCount              uint64
	InstructionsExecutedCount uint16
	InstructionsCount         uint16
	InstructionsNextIndex     uint16
	DraftAt                   int64
	SigningOffAt              *int64
	VotingAt                  *int64
	VotingAtSlot              *uint64
	VotingCompletedAt         *int64
	ExecutingAt               *int64
	ClosedAt                  *int64
	ExecutionFlags            uint8
	MaxVoteWeight             *uint64
	VoteThreshold             *Threshold
	Name                      string
	DescriptionLink           string
}

type voteRecordHeader struct {
	AccountType         uint8
	Proposal            types.Pubkey
	GoverningTokenOwner types.Pubkey
	IsRelinquished      bool
}

type choice struct {
	Rank             uint8
	WeightPercentage uint8
}

type GoverningTokenConfig struct {
	VoterWeightAddin    *types.Pubkey
	MaxVoterWeightAddin *types.Pubkey
	TokenType           uint8
	Reserved            [8]byte
}

type RealmConfig struct {
	AccountType    uint8
	Realm          types.Pubkey
	CommunityToken GoverningTokenConfig
	CouncilToken   GoverningTokenConfig
}

// MustSerialize borsh 序列化，失败直接 panic（仅用于测试）
func MustSerialize(v any) []byte {
	data, err := borsh.Serialize(v)
	if err != nil {
		panic(err)
	}
	return data
}

// VoteRecordV2Data 生成 V2 投票记录；kind 为 0 时 choices 为 [rank, weight] 列表
func VoteRecordV2Data(proposal, owner types.Pubkey, relinquished bool, weight uint64, kind uint8, choices ...[2]uint8) []byte {
	data := MustSerialize(voteRecordHeader{
		AccountType:         TypeVoteRecordV2,
		Proposal:            proposal,
		GoverningTokenOwner: owner,
		IsRelinquished:      relinquished,
	})
	data = append(data, MustSerialize(weight)...)
	data = append(data, kind)
	if kind == 0 {
		cs := make([]choice, 0, len(choices))
		for _, c := range choices {
			cs = append(cs, choice{Rank: c[0], WeightPercentage: c[1]})
		}
		data = append(data, MustSerialize(cs)...)
	}
	return data
}

// VoteRecordV1Data 生成 V1 投票记录；yes 为 false 表示反对票
func VoteRecordV1Data(proposal, owner types.Pubkey, yes bool, weight uint64) []byte {
	data := MustSerialize(voteRecordHeader{
		AccountType:         TypeVoteRecordV1,
		Proposal:            proposal,
		GoverningTokenOwner: owner,
	})
	tag := uint8(0)
	if !yes {
		tag = 1
	}
	data = append(data, tag)
	return append(data, MustSerialize(weight)...)
}

// Key 生成确定性的测试地址
func Key(seed byte) types.Pubkey {
	var p types.Pubkey
	for i := range p {
		p[i] = seed + byte(i)
	}
	return p
}

func Ptr[T any](v T) *T { return &v }
