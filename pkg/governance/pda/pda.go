// Package pda 负责治理程序账户地址（Program Derived Address）的确定性派生。
package pda

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"

	"governance-sdk-sol/internal/cache"
	"governance-sdk-sol/internal/consts"
	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/types"
)

const (
	MaxSeeds      = 16 // 含 bump
	MaxSeedLength = 32
	MaxBump       = 255
	MinBump       = 1
)

// Kind 表示派生地址的账户类型，决定种子前缀与种子个数
type Kind uint8

const (
	KindTokenOwnerRecord Kind = iota + 1
	KindVoteRecord
	KindRealmConfig
	KindRealm
	KindGovernance
	KindProgramGovernance
	KindMintGovernance
	KindTokenGovernance
	KindProposal
	KindNativeTreasury
	KindGoverningTokenHolding
	KindSignatoryRecord
	KindProposalDeposit
)

type kindLayout struct {
	name   string
	prefix string
	seeds  int // 前缀之后的种子个数
}

var kindLayouts = map[Kind]kindLayout{
	KindTokenOwnerRecord:      {"TokenOwnerRecord", consts.SeedGovernance, 3},  // realm, mint, owner
	KindVoteRecord:            {"VoteRecord", consts.SeedGovernance, 2},        // proposal, token owner record
	KindRealmConfig:           {"RealmConfig", consts.SeedRealmConfig, 1},      // realm
	KindRealm:                 {"Realm", consts.SeedGovernance, 1},             // name
	KindGovernance:            {"Governance", consts.SeedAccountGovernance, 2}, // realm, governance seed
	KindProgramGovernance:     {"ProgramGovernance", consts.SeedProgramGovernance, 2},
	KindMintGovernance:        {"MintGovernance", consts.SeedMintGovernance, 2},
	KindTokenGovernance:       {"TokenGovernance", consts.SeedTokenGovernance, 2},
	KindProposal:              {"Proposal", consts.SeedGovernance, 3},              // governance, mint, proposal seed
	KindNativeTreasury:        {"NativeTreasury", consts.SeedNativeTreasury, 1},    // governance
	KindGoverningTokenHolding: {"GoverningTokenHolding", consts.SeedGovernance, 2}, // realm, mint
	KindSignatoryRecord:       {"SignatoryRecord", consts.SeedGovernance, 2},       // proposal, signatory
	KindProposalDeposit:       {"ProposalDeposit", consts.SeedProposalDeposit, 2},  // proposal, payer
}

func (k Kind) String() string {
	if layout, ok := kindLayouts[k]; ok {
		return layout.name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Address 派生结果：地址 + bump（消歧值）
type Address struct {
	Pubkey types.Pubkey
	Bump   uint8
}

// Deriver 按 kind 派生地址。无可变状态，可并发调用；cache 为空时每次重新计算。
type Deriver struct {
	cache *cache.AddressCache
}

func NewDeriver(c *cache.AddressCache) *Deriver {
	return &Deriver{cache: c}
}

// Derive 用 kind 对应的前缀 + seeds 派生 programID 下的地址
func (d *Deriver) Derive(kind Kind, programID types.Pubkey, seeds ...[]byte) (Address, error) {
	layout, ok := kindLayouts[kind]
	if !ok {
		return Address{}, fmt.Errorf("%w: unknown kind %d", errs.ErrInvalidSeeds, kind)
	}
	if len(seeds) != layout.seeds {
		return Address{}, fmt.Errorf("%w: %s expects %d seeds, got %d", errs.ErrInvalidSeeds, layout.name, layout.seeds, len(seeds))
	}

	full := make([][]byte, 0, len(seeds)+1)
	full = append(full, []byte(layout.prefix))
	full = append(full, seeds...)

	if d == nil || d.cache == nil {
		return FindProgramAddress(full, programID)
	}
	got, err := d.cache.Take(cacheKey(kind, programID, seeds), func() (cache.DerivedAddress, error) {
		addr, err := FindProgramAddress(full, programID)
		return cache.DerivedAddress{Pubkey: addr.Pubkey, Bump: addr.Bump}, err
	})
	if err != nil {
		return Address{}, err
	}
	return Address{Pubkey: got.Pubkey, Bump: got.Bump}, nil
}

// FindProgramAddress 从 MaxBump 向下逐个尝试 bump，返回第一个不在 ed25519 曲线上的候选地址。
// 候选地址 = sha256(seeds || bump || programID || "ProgramDerivedAddress")。
func FindProgramAddress(seeds [][]byte, programID types.Pubkey) (Address, error) {
	if err := validateSeeds(seeds); err != nil {
		return Address{}, err
	}

	bump := []byte{0}
	candidate := make([][]byte, len(seeds)+1)
	copy(candidate, seeds)
	candidate[len(seeds)] = bump

	program := programID.ToSDK()
	for b := MaxBump; b >= MinBump; b-- {
		bump[0] = byte(b)
		pk, err := common.CreateProgramAddress(candidate, program)
		if err == nil {
			return Address{Pubkey: types.PubkeyFromSDK(pk), Bump: uint8(b)}, nil
		}
	}
	return Address{}, fmt.Errorf("%w: program=%s", errs.ErrDerivationExhausted, programID)
}

func validateSeeds(seeds [][]byte) error {
	if len(seeds)+1 > MaxSeeds {
		return fmt.Errorf("%w: too many seeds (%d)", errs.ErrInvalidSeeds, len(seeds))
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return fmt.Errorf("%w: seed %d length %d exceeds %d", errs.ErrInvalidSeeds, i, len(s), MaxSeedLength)
		}
	}
	return nil
}

func cacheKey(kind Kind, programID types.Pubkey, seeds [][]byte) string {
	var sb strings.Builder
	sb.Grow(4 + 64 + len(seeds)*65)
	sb.WriteString(kind.String())
	sb.WriteByte(':')
	sb.WriteString(hex.EncodeToString(programID[:]))
	for _, s := range seeds {
		sb.WriteByte(':')
		sb.WriteString(hex.EncodeToString(s))
	}
	return sb.String()
}

// ProposalIndexSeed 是 v1/v2 程序中以提案序号（u32 LE）作为提案种子的编码
func ProposalIndexSeed(index uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, index)
	return b
}
