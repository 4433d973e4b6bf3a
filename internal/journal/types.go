package journal

import (
	"fmt"

	"governance-sdk-sol/pkg/types"
)

// Status 表示一次投票意图的提交状态
type Status int

const (
	StatusUnknown     Status = 0 // Redis 中不存在
	StatusConfirmed   Status = 1 // 交易已确认
	StatusFailed      Status = 2 // 未发送成功或链上执行失败，可以重新提交
	StatusPending     Status = 3 // 已开始提交，结果未知
	StatusUnconfirmed Status = 4 // 已发送但未观察到确认，交易可能已上链
)

func (s Status) String() string {
	switch s {
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	case StatusPending:
		return "pending"
	case StatusUnconfirmed:
		return "unconfirmed"
	default:
		return "unknown"
	}
}

// Action 投票动作
type Action uint8

const (
	ActionCastVote       Action = 0
	ActionRelinquishVote Action = 1
)

func (a Action) String() string {
	switch a {
	case ActionCastVote:
		return "cast"
	case ActionRelinquishVote:
		return "relinquish"
	default:
		return fmt.Sprintf("action%d", uint8(a))
	}
}

// Intent 唯一标识一次投票动作：同一 voter TOR 对同一提案的同一动作
type Intent struct {
	Action           Action
	Proposal         types.Pubkey
	VoterTokenRecord types.Pubkey
}

func (i Intent) String() string {
	return fmt.Sprintf("%s:%s:%s", i.Action, i.Proposal, i.VoterTokenRecord)
}
