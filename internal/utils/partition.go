package utils

import (
	"encoding/binary"

	"governance-sdk-sol/pkg/types"
)

// PartitionForKey 按账户地址选择 Kafka 分区，同一地址的事件总在同一分区，保证消费顺序。
// 地址本身近似均匀分布，不再做额外哈希。
func PartitionForKey(key types.Pubkey, partitions int) int32 {
	if partitions <= 1 {
		return 0
	}
	n := uint32(partitions)
	if n&(n-1) == 0 {
		return int32(uint32(key[types.PubkeySize-1]) & (n - 1)) // 2 的幂：低位掩码
	}
	h := binary.LittleEndian.Uint32(key[:4]) ^ binary.LittleEndian.Uint32(key[types.PubkeySize-4:])
	return int32(h % n)
}
