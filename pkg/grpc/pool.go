package grpc

import (
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// Pool 管理通往多個目標的 gRPC 客戶端連線。
// 它是執行緒安全的 (Thread-safe)，並確保每個目標地址只會維護一個連線實例。
type Pool struct {
	conns       sync.Map // map[string]*grpc.ClientConn
	mu          sync.Mutex
	interceptor grpc.UnaryClientInterceptor // 全局的單一請求攔截器 (Optional)
	dialOpts    []grpc.DialOption           // 每個新連線都會帶上的額外選項
}

// PoolOption 定義了 Pool 的配置選項函數
type PoolOption func(*Pool)

// WithInterceptor 設定 Pool 的全局 UnaryClientInterceptor
// 用於統一處理 Logging 或延遲統計。
func WithInterceptor(interceptor grpc.UnaryClientInterceptor) PoolOption {
	return func(p *Pool) {
		p.interceptor = interceptor
	}
}

// WithDialOptions 追加所有新連線共用的 DialOption (例如測試用的 bufconn dialer)
func WithDialOptions(opts ...grpc.DialOption) PoolOption {
	return func(p *Pool) {
		p.dialOpts = append(p.dialOpts, opts...)
	}
}

// NewPool 建立並回傳一個新的 gRPC 連線池。
// 可以傳入多個 PoolOption 來配置連線池。
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetConnection 獲取現有的連線，或為指定目標建立新連線。
// 此方法會使用通用的預設值來設定 keepalive 與連線超時機制。
//
// 參數:
//
//	target: string - 目標伺服器地址 (e.g., "localhost:50051")
//	opts: ...grpc.DialOption - 只套用於此目標的額外 gRPC 連線選項
//
// 回傳值:
//
//	*grpc.ClientConn: gRPC 客戶端連線物件
//	error: 若建立連線失敗則回傳錯誤
func (p *Pool) GetConnection(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	// 1. 嘗試讀取現有連線 (Fast path)
	if conn, ok := p.load(target); ok {
		return conn, nil
	}

	// 2. 加鎖以防止並發時的重複建立 (Double-check locking)
	p.mu.Lock()
	defer p.mu.Unlock()

	// 3. 再次檢查 (以防在加鎖期間其他 goroutine 已經建立了連線)
	if conn, ok := p.load(target); ok {
		return conn, nil
	}

	// 4. 建立新連線
	defaultOpts := []grpc.DialOption{
		// 內部服務通訊走私有網路，預設不加密 (Insecure)
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second, // 若無活動，每 10 秒發送一次 Ping
			Timeout:             time.Second,      // 等待 Ping 回應的超時時間為 1 秒
			PermitWithoutStream: true,             // 即使沒有活躍的 Stream 也允許發送 Ping
		}),
	}
	if p.interceptor != nil {
		defaultOpts = append(defaultOpts, grpc.WithUnaryInterceptor(p.interceptor))
	}
	finalOpts := append(append(defaultOpts, p.dialOpts...), opts...)

	// 這裡建立的是一個「虛擬連線」，真正的網路連線會在第一次呼叫時才建立 (Lazy connection)
	conn, err := grpc.NewClient(target, finalOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for target %s: %w", target, err)
	}

	// 將新連線存入 map
	p.conns.Store(target, conn)
	return conn, nil
}

// load 讀取目標的現有連線；已處於 Shutdown 狀態的連線會從 map 中移除
func (p *Pool) load(target string) (*grpc.ClientConn, bool) {
	v, ok := p.conns.Load(target)
	if !ok {
		return nil, false
	}
	conn := v.(*grpc.ClientConn)
	if conn.GetState() == connectivity.Shutdown {
		p.conns.Delete(target)
		return nil, false
	}
	return conn, true
}

// Close 關閉連線池中的所有連線。
// 通常在應用程式關閉時呼叫。
func (p *Pool) Close() error {
	var firstErr error
	p.conns.Range(func(key, value any) bool {
		conn := value.(*grpc.ClientConn)
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err // 記錄第一個發生的錯誤
		}
		p.conns.Delete(key)
		return true
	})
	return firstErr
}
