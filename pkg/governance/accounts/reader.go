package accounts

import (
	"encoding/binary"
	"fmt"

	"governance-sdk-sol/pkg/governance/errs"
	"governance-sdk-sol/pkg/types"
)

// reader 是带边界检查的 borsh 布局读取器。
// 第一次越界或格式错误后记录 err，后续读取全部返回零值，调用方在末尾统一检查 err。
type reader struct {
	data []byte
	off  int
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.remaining() < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", errs.ErrTruncatedData, n, r.off, r.remaining())
		return false
	}
	return true
}

func (r *reader) malformed(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s at offset %d", errs.ErrMalformedData, fmt.Sprintf(format, args...), r.off)
	}
}

func (r *reader) skip(n int) {
	if r.need(n) {
		r.off += n
	}
}

func (r *reader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

func (r *reader) i64() int64 {
	return int64(r.u64())
}

func (r *reader) bool() bool {
	switch b := r.u8(); b {
	case 0:
		return false
	case 1:
		return true
	default:
		r.malformed("invalid bool %d", b)
		return false
	}
}

func (r *reader) pubkey() types.Pubkey {
	var p types.Pubkey
	if !r.need(types.PubkeySize) {
		return p
	}
	copy(p[:], r.data[r.off:r.off+types.PubkeySize])
	r.off += types.PubkeySize
	return p
}

// option 读取 Option<T> 的标记字节，返回是否存在值
func (r *reader) option() bool {
	switch tag := r.u8(); tag {
	case 0:
		return false
	case 1:
		return r.err == nil
	default:
		r.malformed("invalid option tag %d", tag)
		return false
	}
}

func (r *reader) optionPubkey() *types.Pubkey {
	if !r.option() {
		return nil
	}
	p := r.pubkey()
	return &p
}

func (r *reader) optionU32() *uint32 {
	if !r.option() {
		return nil
	}
	v := r.u32()
	return &v
}

func (r *reader) optionU64() *uint64 {
	if !r.option() {
		return nil
	}
	v := r.u64()
	return &v
}

func (r *reader) optionI64() *int64 {
	if !r.option() {
		return nil
	}
	v := r.i64()
	return &v
}

// vecLen 读取 Vec 长度前缀，并按每个元素的最小字节数预先校验剩余长度，避免按恶意长度分配内存
func (r *reader) vecLen(minElemSize int) int {
	n := int(r.u32())
	if r.err != nil {
		return 0
	}
	if minElemSize > 0 && n > r.remaining()/minElemSize {
		r.err = fmt.Errorf("%w: vec of %d elements (>= %d bytes each) at offset %d, have %d bytes",
			errs.ErrTruncatedData, n, minElemSize, r.off, r.remaining())
		return 0
	}
	return n
}

func (r *reader) string() string {
	n := r.vecLen(1)
	if !r.need(n) {
		return ""
	}
	s := string(r.data[r.off : r.off+n])
	r.off += n
	return s
}

func (r *reader) voteThreshold() VoteThreshold {
	t := VoteThresholdType(r.u8())
	switch t {
	case ThresholdYesVotePercentage, ThresholdQuorumPercentage:
		return VoteThreshold{Type: t, Value: r.u8()}
	case ThresholdDisabled:
		return VoteThreshold{Type: t}
	default:
		r.malformed("invalid vote threshold %d", t)
		return VoteThreshold{}
	}
}

func (r *reader) optionVoteThreshold() *VoteThreshold {
	if !r.option() {
		return nil
	}
	v := r.voteThreshold()
	return &v
}

func (r *reader) vote() Vote {
	kind := VoteKind(r.u8())
	switch kind {
	case VoteApprove:
		n := r.vecLen(2)
		choices := make([]VoteChoice, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			choices = append(choices, VoteChoice{Rank: r.u8(), WeightPercentage: r.u8()})
		}
		return Vote{Kind: kind, Choices: choices}
	case VoteDeny, VoteAbstain, VoteVeto:
		return Vote{Kind: kind}
	default:
		r.malformed("invalid vote kind %d", kind)
		return Vote{}
	}
}
