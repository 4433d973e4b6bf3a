package accounts

import "governance-sdk-sol/pkg/types"

// VoteRecord 某个 TokenOwnerRecord 对某个提案的投票记录
type VoteRecord struct {
	AccountType         AccountType
	Proposal            types.Pubkey
	GoverningTokenOwner types.Pubkey
	IsRelinquished      bool
	VoterWeight         uint64
	Vote                Vote
}

func (*VoteRecord) RecordKind() Kind { return KindVoteRecord }

// DecodeVoteRecord 解码投票记录。V1 的 Yes/No 权重分别映射为 Approve(100%) / Deny。
func DecodeVoteRecord(data []byte) (*VoteRecord, error) {
	t, err := checkHeader(KindVoteRecord, data)
	if err != nil {
		return nil, err
	}
	r := newReader(data)
	r.skip(1)
	rec := &VoteRecord{AccountType: t}
	rec.Proposal = r.pubkey()
	rec.GoverningTokenOwner = r.pubkey()
	rec.IsRelinquished = r.bool()
	if t == AccountVoteRecordV1 {
		switch tag := r.u8(); tag {
		case 0:
			rec.VoterWeight = r.u64()
			rec.Vote = ApproveVote(VoteChoice{Rank: 0, WeightPercentage: 100})
		case 1:
			rec.VoterWeight = r.u64()
			rec.Vote = DenyVote()
		default:
			r.malformed("invalid vote weight tag %d", tag)
		}
		return finish(rec, r, KindVoteRecord)
	}
	rec.VoterWeight = r.u64()
	rec.Vote = r.vote()
	return finish(rec, r, KindVoteRecord)
}
