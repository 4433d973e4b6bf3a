package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"governance-sdk-sol/internal/config"
	"governance-sdk-sol/pkg/logger"
	"governance-sdk-sol/pkg/types"
)

// AccountUpdate 治理程序账户的一次变更
type AccountUpdate struct {
	Slot         uint64
	Pubkey       types.Pubkey
	Owner        types.Pubkey
	Lamports     uint64
	Data         []byte
	WriteVersion uint64
	IsStartup    bool
}

// AccountStreamManager 订阅 owner 为治理程序的账户更新，断线自动重连
type AccountStreamManager struct {
	mu                sync.Mutex                // 保护 stream / connCancel / stopped
	conn              *grpc.ClientConn          // gRPC 连接对象
	client            pb.GeyserClient           // gRPC 客户端
	stream            pb.Geyser_SubscribeClient // 当前订阅流
	stopped           bool                      // 标记是否已经停止
	stopCtx           context.Context           // Stop 后取消，用于打断重连等待
	stopCancel        context.CancelFunc        //
	connCancel        context.CancelFunc        // 当前连接的 cancel 函数
	reconnectAttempts int                       // 已重连次数
	reconnectInterval time.Duration             // 重连基础间隔
	xToken            string                    // 认证用的 x-token
	pingInterval      time.Duration             // Stream 心跳间隔
	sendTimeout       time.Duration             // Send 超时
	program           string                    // 订阅的 owner（治理程序 id）
	updates           chan<- *AccountUpdate     // 输出通道
	wg                sync.WaitGroup
}

func NewAccountStreamManager(grpcConf config.GrpcConfig, program types.Pubkey, updates chan<- *AccountUpdate) (*AccountStreamManager, error) {
	if grpcConf.Endpoint == "" {
		return nil, errors.New("grpc endpoint not configured")
	}

	creds := credentials.NewTLS(&tls.Config{InsecureSkipVerify: true})
	if grpcConf.Plaintext {
		creds = insecure.NewCredentials()
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(grpcConf.ConnectTimeoutSec)*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		grpcConf.Endpoint,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(grpcConf.MaxCallSendMsgSize),
			grpc.MaxCallRecvMsgSize(grpcConf.MaxCallRecvMsgSize),
		),
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(grpcConf.KeepalivePingIntervalSec) * time.Second,
			Timeout:             time.Duration(grpcConf.KeepalivePingTimeoutSec) * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", grpcConf.Endpoint, err)
	}

	stopCtx, stopCancel := context.WithCancel(context.Background())
	return &AccountStreamManager{
		conn:              conn,
		client:            pb.NewGeyserClient(conn),
		stopCtx:           stopCtx,
		stopCancel:        stopCancel,
		reconnectInterval: time.Duration(grpcConf.ReconnectIntervalSec) * time.Second,
		xToken:            grpcConf.XToken,
		pingInterval:      time.Duration(grpcConf.StreamPingIntervalSec) * time.Second,
		sendTimeout:       time.Duration(grpcConf.SendTimeoutSec) * time.Second,
		program:           program.String(),
		updates:           updates,
	}, nil
}

func (m *AccountStreamManager) Start() {
	m.mustConnect()
}

func (m *AccountStreamManager) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.stopCancel()
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.mu.Unlock()

	m.wg.Wait()
	if err := m.conn.Close(); err != nil {
		logger.Warnf("[AccountStream] close conn: %v", err)
	}
}

func (m *AccountStreamManager) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// mustConnect 循环直到连接成功或被 Stop
func (m *AccountStreamManager) mustConnect() {
	for !m.isStopped() {
		if m.reconnectAttempts > 0 {
			wait := m.reconnectInterval
			if m.reconnectAttempts > 3 {
				wait *= 2
			}
			select {
			case <-m.stopCtx.Done():
				return
			case <-time.After(wait):
			}
		}
		m.reconnectAttempts++
		logger.Infof("[AccountStream] connecting, attempt %d", m.reconnectAttempts)
		err := m.connect()
		if err == nil {
			return
		}
		logger.Warnf("[AccountStream] connect failed: %v, will retry", err)
	}
}

func buildSubscribeRequest(program string) *pb.SubscribeRequest {
	accounts := map[string]*pb.SubscribeRequestFilterAccounts{
		"governance": {Owner: []string{program}},
	}
	commitment := pb.CommitmentLevel_CONFIRMED
	return &pb.SubscribeRequest{
		Accounts:   accounts,
		Commitment: &commitment,
	}
}

// connect 只尝试一次
func (m *AccountStreamManager) connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return errors.New("manager is stopped")
	}

	// 先关闭旧连接上的协程
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	connCtx, connCancel := context.WithCancel(m.stopCtx)

	metaCtx := metadata.NewOutgoingContext(connCtx, metadata.New(map[string]string{"x-token": m.xToken}))
	stream, err := m.client.Subscribe(metaCtx)
	if err != nil {
		connCancel()
		return fmt.Errorf("subscribe: %w", err)
	}
	if err := sendWithTimeout(connCtx, stream.Send, buildSubscribeRequest(m.program), m.sendTimeout); err != nil {
		connCancel()
		return fmt.Errorf("send subscribe request: %w", err)
	}

	m.stream = stream
	m.connCancel = connCancel
	m.reconnectAttempts = 0
	logger.Infof("[AccountStream] subscribed to accounts owned by %s", m.program)

	m.wg.Add(2)
	go m.pingLoop(connCtx, stream)
	go m.recvLoop(connCtx, stream)
	return nil
}

func (m *AccountStreamManager) recvLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[AccountStream] recv panic: %v\n%s", r, debug.Stack())
			m.reconnect()
		}
	}()

	for {
		update, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				logger.Warnf("[AccountStream] stream closed by server, will reconnect")
			} else {
				logger.Warnf("[AccountStream] stream error: %v, will reconnect", err)
			}
			m.reconnect()
			return
		}

		u, ok := update.GetUpdateOneof().(*pb.SubscribeUpdate_Account)
		if !ok {
			continue
		}
		au, err := toAccountUpdate(u.Account)
		if err != nil {
			logger.Warnf("[AccountStream] skip update at slot %d: %v", u.Account.GetSlot(), err)
			continue
		}
		select {
		case m.updates <- au:
		case <-ctx.Done():
			return
		}
	}
}

func toAccountUpdate(u *pb.SubscribeUpdateAccount) (*AccountUpdate, error) {
	info := u.GetAccount()
	if info == nil {
		return nil, errors.New("missing account info")
	}
	pubkey, err := types.PubkeyFromBytes(info.GetPubkey())
	if err != nil {
		return nil, fmt.Errorf("pubkey: %w", err)
	}
	owner, err := types.PubkeyFromBytes(info.GetOwner())
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	return &AccountUpdate{
		Slot:         u.GetSlot(),
		Pubkey:       pubkey,
		Owner:        owner,
		Lamports:     info.GetLamports(),
		Data:         info.GetData(),
		WriteVersion: info.GetWriteVersion(),
		IsStartup:    u.GetIsStartup(),
	}, nil
}

// 带超时的 Send
func sendWithTimeout[T any](ctx context.Context, sendFunc func(T) error, req T, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sendFunc(req)
	}()

	select {
	case <-timeoutCtx.Done():
		return timeoutCtx.Err()
	case err := <-done:
		return err
	}
}

// 心跳，失败只记日志，断线由 recvLoop 处理
func (m *AccountStreamManager) pingLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) {
	defer m.wg.Done()
	if m.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()

	var id int32
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			id++
			req := &pb.SubscribeRequest{Ping: &pb.SubscribeRequestPing{Id: id}}
			if err := sendWithTimeout(ctx, stream.Send, req, m.sendTimeout); err != nil && ctx.Err() == nil {
				logger.Warnf("[AccountStream] ping failed: %v", err)
			}
		}
	}
}

func (m *AccountStreamManager) reconnect() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.mustConnect()
	}()
}
