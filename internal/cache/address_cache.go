package cache

import (
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/collection"

	"governance-sdk-sol/pkg/types"
)

const (
	defaultAddressCacheLimit  = 10000
	defaultAddressCacheExpire = time.Hour
)

// DerivedAddress 是缓存中的一个条目：派生地址 + bump
type DerivedAddress struct {
	Pubkey types.Pubkey
	Bump   uint8
}

// AddressCache 缓存 PDA 派生结果。
// 派生是纯函数，同一组 (kind, program, seeds) 永远得到相同结果，因此缓存不存在失效问题，
// 过期时间只用于控制内存占用。
type AddressCache struct {
	c *collection.Cache
}

// NewAddressCache 创建 LRU 地址缓存，limit<=0 / expire<=0 时使用默认值
func NewAddressCache(limit int, expire time.Duration) (*AddressCache, error) {
	if limit <= 0 {
		limit = defaultAddressCacheLimit
	}
	if expire <= 0 {
		expire = defaultAddressCacheExpire
	}
	c, err := collection.NewCache(expire, collection.WithLimit(limit), collection.WithName("pda"))
	if err != nil {
		return nil, fmt.Errorf("create address cache: %w", err)
	}
	return &AddressCache{c: c}, nil
}

// Take 命中则直接返回，否则调用 derive 计算并写入缓存（失败结果不缓存）
func (ac *AddressCache) Take(key string, derive func() (DerivedAddress, error)) (DerivedAddress, error) {
	val, err := ac.c.Take(key, func() (any, error) {
		return derive()
	})
	if err != nil {
		return DerivedAddress{}, err
	}
	addr, ok := val.(DerivedAddress)
	if !ok {
		return DerivedAddress{}, fmt.Errorf("address cache: unexpected value type %T", val)
	}
	return addr, nil
}

func (ac *AddressCache) Get(key string) (DerivedAddress, bool) {
	val, ok := ac.c.Get(key)
	if !ok {
		return DerivedAddress{}, false
	}
	addr, ok := val.(DerivedAddress)
	return addr, ok
}
