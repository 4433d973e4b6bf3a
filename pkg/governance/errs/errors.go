// Package errs 定义治理客户端的错误分类。
//
// 调用方可以用 errors.Is 同时判断具体错误和其所属类别：
//   - ErrInvalidAccountData：链上数据格式异常或版本不支持
//   - ErrInvalidArgument：调用方传入参数非法
//   - ErrSubmission：交易提交/确认失败（外部传输或共识错误）
//
// 三类错误的恢复策略不同，因此类别在错误链上始终可见。
package errs

import (
	"errors"
	"fmt"
)

// 类别
var (
	ErrInvalidAccountData = errors.New("invalid account data")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrSubmission         = errors.New("submission failed")
)

// ErrAccountNotFound 账户在账本上不存在
var ErrAccountNotFound = errors.New("account not found")

// 链上数据错误
var (
	ErrUnexpectedAccountKind = fmt.Errorf("%w: unexpected account kind", ErrInvalidAccountData)
	ErrTruncatedData         = fmt.Errorf("%w: truncated data", ErrInvalidAccountData)
	ErrUnsupportedVersion    = fmt.Errorf("%w: unsupported version", ErrInvalidAccountData)
	ErrMalformedData         = fmt.Errorf("%w: malformed data", ErrInvalidAccountData)
)

// 参数错误
var (
	ErrInvalidVoteWeights   = fmt.Errorf("%w: vote weights must sum to 100 per rank", ErrInvalidArgument)
	ErrMintMismatch         = fmt.Errorf("%w: governing token mint mismatch", ErrInvalidArgument)
	ErrIncompletePluginPair = fmt.Errorf("%w: voter weight record and max voter weight record must be supplied together", ErrInvalidArgument)
	ErrIncompleteRefundPair = fmt.Errorf("%w: authority and beneficiary must be supplied together", ErrInvalidArgument)
	ErrVoteNotSupported     = fmt.Errorf("%w: vote not supported by program version", ErrInvalidArgument)
	ErrInvalidSeeds         = fmt.Errorf("%w: invalid derivation seeds", ErrInvalidArgument)
	ErrDerivationExhausted  = fmt.Errorf("%w: no viable bump seed", ErrInvalidArgument)
)

// ErrTransactionFailed 交易已上链但执行失败，可以安全地重新提交
var ErrTransactionFailed = fmt.Errorf("%w: transaction failed on chain", ErrSubmission)

// Submission 将外部提交错误包装为 ErrSubmission，保留原始 cause
func Submission(op string, cause error) error {
	return &SubmissionError{Op: op, Cause: cause}
}

// SubmissionError 携带提交阶段和底层原因
type SubmissionError struct {
	Op    string
	Cause error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed at %s: %v", e.Op, e.Cause)
}

func (e *SubmissionError) Unwrap() []error {
	return []error{ErrSubmission, e.Cause}
}
