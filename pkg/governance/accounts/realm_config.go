package accounts

import "governance-sdk-sol/pkg/types"

// GoverningTokenType Liquid 0 / Membership 1 / Dormant 2
type GoverningTokenType uint8

// GoverningTokenConfig 单个 mint 的插件与代币类型配置
type GoverningTokenConfig struct {
	VoterWeightAddin    *types.Pubkey
	MaxVoterWeightAddin *types.Pubkey
	TokenType           GoverningTokenType
}

// RealmConfigAccount 独立的 realm 配置账户（PDA: "realm-config" + realm）
type RealmConfigAccount struct {
	AccountType    AccountType
	Realm          types.Pubkey
	CommunityToken GoverningTokenConfig
	CouncilToken   GoverningTokenConfig
}

func (*RealmConfigAccount) RecordKind() Kind { return KindRealmConfig }

// DecodeRealmConfig 解码 RealmConfig 账户
func DecodeRealmConfig(data []byte) (*RealmConfigAccount, error) {
	t, err := checkHeader(KindRealmConfig, data)
	if err != nil {
		return nil, err
	}
	r := newReader(data)
	r.skip(1)
	rec := &RealmConfigAccount{AccountType: t}
	rec.Realm = r.pubkey()
	rec.CommunityToken = r.governingTokenConfig()
	rec.CouncilToken = r.governingTokenConfig()
	return finish(rec, r, KindRealmConfig)
}

func (r *reader) governingTokenConfig() GoverningTokenConfig {
	c := GoverningTokenConfig{
		VoterWeightAddin:    r.optionPubkey(),
		MaxVoterWeightAddin: r.optionPubkey(),
		TokenType:           GoverningTokenType(r.u8()),
	}
	if c.TokenType > 2 {
		r.malformed("invalid governing token type %d", c.TokenType)
	}
	r.skip(8) // reserved
	return c
}

// TokenConfigFor 根据 mint 是否为 council mint 选择对应配置
func (c *RealmConfigAccount) TokenConfigFor(realm *Realm, mint types.Pubkey) GoverningTokenConfig {
	if realm != nil && realm.Config.CouncilMint != nil && *realm.Config.CouncilMint == mint {
		return c.CouncilToken
	}
	return c.CommunityToken
}
