package types

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

// PubkeySize 是 Solana 地址的固定字节长度
const PubkeySize = 32

// Pubkey 表示 32 字节的链上地址，按字节比较，不可变
type Pubkey [PubkeySize]byte

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) Equals(other Pubkey) bool {
	return p == other
}

func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

func (p Pubkey) Bytes() []byte {
	return p[:]
}

// ToSDK 转换为 solana-go-sdk 的 PublicKey（两者内存布局一致）
func (p Pubkey) ToSDK() common.PublicKey {
	return common.PublicKey(p)
}

func PubkeyFromSDK(pk common.PublicKey) Pubkey {
	return Pubkey(pk)
}

// MarshalText 实现 encoding.TextMarshaler，JSON/YAML 中以 base58 呈现
func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，供 yaml.v3 / json 解析配置
func (p *Pubkey) UnmarshalText(text []byte) error {
	pk, err := TryPubkeyFromBase58(string(text))
	if err != nil {
		return err
	}
	*p = pk
	return nil
}

// TryPubkeyFromBase58 解析 base58 字符串为 Pubkey，失败时返回 error（用于不信任输入路径）
func TryPubkeyFromBase58(s string) (Pubkey, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("failed to decode base58 pubkey %q: %w", s, err)
	}
	if len(data) != PubkeySize {
		return Pubkey{}, fmt.Errorf("invalid pubkey length: got %d, want 32, input=%q", len(data), s)
	}
	var p Pubkey
	copy(p[:], data)
	return p, nil
}

// PubkeyFromBase58 仅用于常量初始化，非法输入直接 panic
func PubkeyFromBase58(s string) Pubkey {
	p, err := TryPubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}

func PubkeysFromBase58(strs []string) []Pubkey {
	result := make([]Pubkey, 0, len(strs))
	for _, s := range strs {
		result = append(result, PubkeyFromBase58(s))
	}
	return result
}

// PubkeyFromBytes 从原始字节构造 Pubkey，长度必须为 32
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	if len(b) != PubkeySize {
		return Pubkey{}, fmt.Errorf("invalid pubkey length: got %d, want 32", len(b))
	}
	var p Pubkey
	copy(p[:], b)
	return p, nil
}
