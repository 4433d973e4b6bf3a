package accounts

import "governance-sdk-sol/pkg/types"

// RealmConfig 是 Realm 内嵌的配置（不同于独立的 RealmConfigAccount）
type RealmConfig struct {
	UseCommunityVoterWeightAddin    bool
	UseMaxCommunityVoterWeightAddin bool
	MinCommunityWeightToCreateGov   uint64
	CommunityMintMaxVoterWeight     MintMaxVoterWeightSource
	CouncilMint                     *types.Pubkey
}

// Realm 治理域，V1/V2 布局一致
type Realm struct {
	AccountType         AccountType
	CommunityMint       types.Pubkey
	Config              RealmConfig
	VotingProposalCount uint16
	Authority           *types.Pubkey
	Name                string
}

func (*Realm) RecordKind() Kind { return KindRealm }

// DecodeRealm 解码 Realm 账户
func DecodeRealm(data []byte) (*Realm, error) {
	t, err := checkHeader(KindRealm, data)
	if err != nil {
		return nil, err
	}
	r := newReader(data)
	r.skip(1)
	rec := &Realm{AccountType: t}
	rec.CommunityMint = r.pubkey()
	rec.Config.UseCommunityVoterWeightAddin = r.bool()
	rec.Config.UseMaxCommunityVoterWeightAddin = r.bool()
	r.skip(6) // reserved
	rec.Config.MinCommunityWeightToCreateGov = r.u64()
	rec.Config.CommunityMintMaxVoterWeight = MintMaxVoterWeightSource{Type: r.u8(), Value: r.u64()}
	if rec.Config.CommunityMintMaxVoterWeight.Type > 1 {
		r.malformed("invalid max voter weight source %d", rec.Config.CommunityMintMaxVoterWeight.Type)
	}
	rec.Config.CouncilMint = r.optionPubkey()
	r.skip(6) // reserved
	rec.VotingProposalCount = r.u16()
	rec.Authority = r.optionPubkey()
	rec.Name = r.string()
	return finish(rec, r, KindRealm)
}

// GoverningMints 返回 community mint 与（可选的）council mint
func (r *Realm) GoverningMints() []types.Pubkey {
	mints := []types.Pubkey{r.CommunityMint}
	if r.Config.CouncilMint != nil {
		mints = append(mints, *r.Config.CouncilMint)
	}
	return mints
}

// IsGoverningMint 判断 mint 是否属于该 realm
func (r *Realm) IsGoverningMint(mint types.Pubkey) bool {
	for _, m := range r.GoverningMints() {
		if m == mint {
			return true
		}
	}
	return false
}
