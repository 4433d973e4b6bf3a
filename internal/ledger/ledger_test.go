package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/blocto/solana-go-sdk/program/system"
	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"governance-sdk-sol/internal/config"
	"governance-sdk-sol/internal/testutil"
	"governance-sdk-sol/pkg/governance"
	"governance-sdk-sol/pkg/governance/errs"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode 按 method 返回预设的 result
type fakeNode struct {
	mu       sync.Mutex
	results  map[string][]any
	requests []rpcRequest
}

func (f *fakeNode) push(method string, result any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results == nil {
		f.results = map[string][]any{}
	}
	f.results[method] = append(f.results[method], result)
}

func (f *fakeNode) calls(method string) []rpcRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []rpcRequest
	for _, r := range f.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	queue := f.results[req.Method]
	var result any
	if len(queue) > 0 {
		result = queue[0]
		// 最后一个结果重复使用
		if len(queue) > 1 {
			f.results[req.Method] = queue[1:]
		}
	}
	f.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr, ok := result.(error); ok {
		resp["error"] = map[string]any{"code": -32000, "message": rpcErr.Error()}
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func withContext(value any) map[string]any {
	return map[string]any{"context": map[string]any{"slot": 100}, "value": value}
}

func accountJSON(data []byte) map[string]any {
	return map[string]any{
		"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
		"executable": false,
		"lamports":   1_000_000,
		"owner":      testutil.Key(9).String(),
		"rentEpoch":  0,
	}
}

func newTestLedger(t *testing.T, node *fakeNode, registry prometheus.Registerer) *RPCLedger {
	t.Helper()
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	l, err := NewRPCLedger(config.RpcConfig{
		Endpoint:          srv.URL,
		Commitment:        "confirmed",
		ConfirmTimeoutSec: 2,
		PollIntervalMs:    10,
		RequestTimeoutSec: 2,
	}, registry)
	require.NoError(t, err)
	return l
}

func TestNewRPCLedger_Validation(t *testing.T) {
	_, err := NewRPCLedger(config.RpcConfig{}, nil)
	assert.Error(t, err)

	_, err = NewRPCLedger(config.RpcConfig{Endpoint: "http://localhost", Commitment: "fast"}, nil)
	assert.Error(t, err)
}

func TestFetchAccount(t *testing.T) {
	node := &fakeNode{}
	registry := prometheus.NewRegistry()
	l := newTestLedger(t, node, registry)

	data := []byte{1, 2, 3, 4}
	node.push("getAccountInfo", withContext(accountJSON(data)))

	got, err := l.FetchAccount(context.Background(), testutil.Key(1))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, 1.0, promtest.ToFloat64(l.metrics.requests.WithLabelValues("getAccountInfo", "ok")))
}

func TestFetchAccount_NotFound(t *testing.T) {
	node := &fakeNode{}
	l := newTestLedger(t, node, nil)
	node.push("getAccountInfo", withContext(nil))

	_, err := l.FetchAccount(context.Background(), testutil.Key(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAccountNotFound))
}

func TestFetchAccount_RPCError(t *testing.T) {
	node := &fakeNode{}
	l := newTestLedger(t, node, nil)
	node.push("getAccountInfo", errors.New("node is behind"))

	_, err := l.FetchAccount(context.Background(), testutil.Key(1))
	require.Error(t, err)
	assert.False(t, errors.Is(err, errs.ErrAccountNotFound))
	assert.Equal(t, 1.0, promtest.ToFloat64(l.metrics.requests.WithLabelValues("getAccountInfo", "error")))
}

func TestFetchAccountsByFilter(t *testing.T) {
	node := &fakeNode{}
	l := newTestLedger(t, node, nil)

	a, b := testutil.Key(1), testutil.Key(2)
	node.push("getProgramAccounts", []any{
		map[string]any{"pubkey": a.String(), "account": accountJSON([]byte{2, 0})},
		map[string]any{"pubkey": b.String(), "account": accountJSON([]byte{2, 1})},
	})

	owner := testutil.Key(7)
	got, err := l.FetchAccountsByFilter(context.Background(), testutil.Key(9),
		governance.AccountFilter{Offset: 65, Bytes: owner.Bytes()})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0].Pubkey)
	assert.Equal(t, []byte{2, 1}, got[1].Data)

	// memcmp 字节以 base58 编码发送
	calls := node.calls("getProgramAccounts")
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Params, 2)
	var cfg struct {
		Encoding string `json:"encoding"`
		Filters  []struct {
			MemCmp struct {
				Offset uint64 `json:"offset"`
				Bytes  string `json:"bytes"`
			} `json:"memcmp"`
		} `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(calls[0].Params[1], &cfg))
	assert.Equal(t, "base64", cfg.Encoding)
	require.Len(t, cfg.Filters, 1)
	assert.Equal(t, uint64(65), cfg.Filters[0].MemCmp.Offset)
	assert.Equal(t, base58.Encode(owner.Bytes()), cfg.Filters[0].MemCmp.Bytes)
}

func TestFetchAccountsByFilter_RPCError(t *testing.T) {
	node := &fakeNode{}
	registry := prometheus.NewRegistry()
	l := newTestLedger(t, node, registry)
	node.push("getProgramAccounts", errors.New("scan disabled"))

	_, err := l.FetchAccountsByFilter(context.Background(), testutil.Key(9))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan disabled")
	assert.Equal(t, 1.0, promtest.ToFloat64(l.metrics.requests.WithLabelValues("getProgramAccounts", "error")))
}

func TestFetchAccountsByFilter_BadData(t *testing.T) {
	node := &fakeNode{}
	l := newTestLedger(t, node, nil)

	account := accountJSON(nil)
	account["data"] = []string{"AQI=", "base58"}
	node.push("getProgramAccounts", []any{
		map[string]any{"pubkey": testutil.Key(1).String(), "account": account},
	})

	_, err := l.FetchAccountsByFilter(context.Background(), testutil.Key(9))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding")
}

func TestDecodeAccountData(t *testing.T) {
	data, err := decodeAccountData([]any{"AQI=", "base64"})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, data)

	_, err = decodeAccountData("AQI=")
	assert.Error(t, err)
	_, err = decodeAccountData([]any{"!!", "base64"})
	assert.Error(t, err)
}

func transferIx(from sdktypes.Account) sdktypes.Instruction {
	return system.Transfer(system.TransferParam{
		From:   from.PublicKey,
		To:     testutil.Key(5).ToSDK(),
		Amount: 1,
	})
}

func TestSendAndConfirm(t *testing.T) {
	node := &fakeNode{}
	l := newTestLedger(t, node, nil)
	payer := sdktypes.NewAccount()

	node.push("getLatestBlockhash", withContext(map[string]any{
		"blockhash":            testutil.Key(3).String(),
		"lastValidBlockHeight": 1000,
	}))
	node.push("sendTransaction", "5sig")
	node.push("getSignatureStatuses", withContext([]any{nil}))
	node.push("getSignatureStatuses", withContext([]any{map[string]any{
		"slot": 101, "confirmations": 1, "err": nil, "confirmationStatus": "processed",
	}}))
	node.push("getSignatureStatuses", withContext([]any{map[string]any{
		"slot": 102, "confirmations": nil, "err": nil, "confirmationStatus": "confirmed",
	}}))

	sig, err := l.SendAndConfirm(context.Background(), []sdktypes.Instruction{transferIx(payer)}, payer, payer)
	require.NoError(t, err)
	assert.Equal(t, "5sig", sig)
	assert.Len(t, node.calls("getSignatureStatuses"), 3)
	assert.Equal(t, 1.0, promtest.ToFloat64(l.metrics.submissions.WithLabelValues("confirmed")))
}

func TestSendAndConfirm_TransactionError(t *testing.T) {
	node := &fakeNode{}
	l := newTestLedger(t, node, nil)
	payer := sdktypes.NewAccount()

	node.push("getLatestBlockhash", withContext(map[string]any{
		"blockhash":            testutil.Key(3).String(),
		"lastValidBlockHeight": 1000,
	}))
	node.push("sendTransaction", "5sig")
	node.push("getSignatureStatuses", withContext([]any{map[string]any{
		"slot": 101, "confirmations": 1, "err": map[string]any{"InstructionError": []any{0, "Custom"}}, "confirmationStatus": "confirmed",
	}}))

	sig, err := l.SendAndConfirm(context.Background(), []sdktypes.Instruction{transferIx(payer)}, payer)
	require.Error(t, err)
	assert.Equal(t, "5sig", sig)
	assert.True(t, errors.Is(err, errs.ErrSubmission))
	assert.True(t, errors.Is(err, errs.ErrTransactionFailed))

	var subErr *errs.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, "confirm", subErr.Op)
}

func TestSendAndConfirm_SendRejected(t *testing.T) {
	node := &fakeNode{}
	l := newTestLedger(t, node, nil)
	payer := sdktypes.NewAccount()

	node.push("getLatestBlockhash", withContext(map[string]any{
		"blockhash":            testutil.Key(3).String(),
		"lastValidBlockHeight": 1000,
	}))
	node.push("sendTransaction", errors.New("Transaction simulation failed"))

	sig, err := l.SendAndConfirm(context.Background(), []sdktypes.Instruction{transferIx(payer)}, payer)
	require.Error(t, err)
	assert.Empty(t, sig)
	assert.True(t, errors.Is(err, errs.ErrSubmission))
	assert.Empty(t, node.calls("getSignatureStatuses"))
	assert.Equal(t, 1.0, promtest.ToFloat64(l.metrics.submissions.WithLabelValues("send_failed")))
}

func TestSendAndConfirm_CanceledContext(t *testing.T) {
	node := &fakeNode{}
	l := newTestLedger(t, node, nil)
	payer := sdktypes.NewAccount()

	node.push("getLatestBlockhash", withContext(map[string]any{
		"blockhash":            testutil.Key(3).String(),
		"lastValidBlockHeight": 1000,
	}))
	node.push("sendTransaction", "5sig")
	node.push("getSignatureStatuses", withContext([]any{nil}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sig, err := l.SendAndConfirm(ctx, []sdktypes.Instruction{transferIx(payer)}, payer)
	require.Error(t, err)
	// 已取消的 ctx 在 getLatestBlockhash 阶段即失败
	assert.Empty(t, sig)
	assert.True(t, errors.Is(err, errs.ErrSubmission))
	assert.False(t, errors.Is(err, errs.ErrTransactionFailed))
}

func TestUniqueSigners(t *testing.T) {
	a, b := sdktypes.NewAccount(), sdktypes.NewAccount()
	got := uniqueSigners(a, []sdktypes.Account{b, a, b})
	require.Len(t, got, 2)
	assert.Equal(t, a.PublicKey, got[0].PublicKey)
	assert.Equal(t, b.PublicKey, got[1].PublicKey)
}
