package venue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var streamLog = logrus.WithField("module", "venue_stream")

const (
	reconnectCoolDown = 15 * time.Second
	pingInterval      = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 10 * time.Second
)

// BookUpdate 订单簿推送解析出的最优报价（yes 侧，分）。
type BookUpdate struct {
	Ticker     string
	YesBid     int
	YesAsk     int
	BidDepth   int64
	AskDepth   int64
	ReceivedAt time.Time
}

// BookStream 场内订单簿 WebSocket 流。
// 推送经有界 channel 交给消费循环；channel 满时丢弃最旧的一条，
// 生产侧永不阻塞。
type BookStream struct {
	wsURL   string
	apiKey  string
	tickers []string

	conn   *websocket.Conn
	connMu sync.Mutex

	reconnectC chan struct{}
	closeC     chan struct{}
	closeOnce  sync.Once

	// 每个 ticker 一份深度簿：snapshot 整本替换，delta 增量修改。
	books   map[string]*depthBook
	booksMu sync.Mutex

	updates chan BookUpdate
}

// NewBookStream 创建订单簿流。bufferSize 为推送缓冲大小。
func NewBookStream(wsURL, apiKey string, tickers []string, bufferSize int) *BookStream {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &BookStream{
		wsURL:      wsURL,
		apiKey:     apiKey,
		tickers:    tickers,
		reconnectC: make(chan struct{}, 1),
		closeC:     make(chan struct{}),
		books:      make(map[string]*depthBook),
		updates:    make(chan BookUpdate, bufferSize),
	}
}

// Updates 返回推送 channel，供消费循环 select。
func (s *BookStream) Updates() <-chan BookUpdate {
	return s.updates
}

// Connect 建立连接并启动读取、心跳与重连 goroutine。
func (s *BookStream) Connect(ctx context.Context) error {
	if err := s.dialAndSubscribe(ctx); err != nil {
		return err
	}
	go s.reconnector(ctx)
	return nil
}

func (s *BookStream) dialAndSubscribe(ctx context.Context) error {
	select {
	case <-s.closeC:
		return errors.New("book stream closed")
	default:
	}

	dialer := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	header := map[string][]string{"Authorization": {"Bearer " + s.apiKey}}
	conn, _, err := dialer.DialContext(ctx, s.wsURL, header)
	if err != nil {
		return errors.Wrap(err, "dial book stream")
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout * 2))
	})

	s.connMu.Lock()
	old := s.conn
	s.conn = conn
	s.connMu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	sub := map[string]interface{}{
		"id":  1,
		"cmd": "subscribe",
		"params": map[string]interface{}{
			"channels":       []string{"orderbook_delta"},
			"market_tickers": s.tickers,
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "subscribe book stream")
	}

	go s.readLoop(ctx, conn)
	go s.pingLoop(ctx, conn)
	streamLog.Infof("订单簿流已连接，订阅 %d 个 ticker", len(s.tickers))
	return nil
}

func (s *BookStream) triggerReconnect() {
	select {
	case s.reconnectC <- struct{}{}:
	default:
	}
}

func (s *BookStream) reconnector(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closeC:
			return
		case <-s.reconnectC:
			select {
			case <-ctx.Done():
				return
			case <-s.closeC:
				return
			case <-time.After(reconnectCoolDown):
			}
			if err := s.dialAndSubscribe(ctx); err != nil {
				streamLog.Warnf("重连失败: %v，稍后重试", err)
				s.triggerReconnect()
			}
		}
	}
}

func (s *BookStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closeC:
			return
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
				continue
			}
			streamLog.Warnf("订单簿流读取错误: %v，触发重连", err)
			_ = conn.Close()
			s.triggerReconnect()
			return
		}
		s.handleMessage(message)
	}
}

func (s *BookStream) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closeC:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				streamLog.Warnf("发送 PING 失败: %v，触发重连", err)
				s.triggerReconnect()
				return
			}
		}
	}
}

type wsEnvelope struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg"`
}

// snapshotMsg 整本订单簿，每档为 [价格, 数量]。
type snapshotMsg struct {
	MarketTicker string     `json:"market_ticker"`
	Yes          [][2]int64 `json:"yes"`
	No           [][2]int64 `json:"no"`
}

// deltaMsg 单个价位的增量变化，delta 可为负。
type deltaMsg struct {
	MarketTicker string `json:"market_ticker"`
	Price        int    `json:"price"`
	Delta        int64  `json:"delta"`
	Side         string `json:"side"`
}

// depthBook 单市场两侧的价位深度，price -> 数量。
type depthBook struct {
	yes map[int]int64
	no  map[int]int64
}

func newDepthBook() *depthBook {
	return &depthBook{yes: make(map[int]int64), no: make(map[int]int64)}
}

func (b *depthBook) applySnapshot(snap snapshotMsg) {
	b.yes = make(map[int]int64, len(snap.Yes))
	b.no = make(map[int]int64, len(snap.No))
	for _, lvl := range snap.Yes {
		if lvl[1] > 0 {
			b.yes[int(lvl[0])] = lvl[1]
		}
	}
	for _, lvl := range snap.No {
		if lvl[1] > 0 {
			b.no[int(lvl[0])] = lvl[1]
		}
	}
}

func (b *depthBook) applyDelta(side string, price int, delta int64) {
	book := b.yes
	if side == "no" {
		book = b.no
	}
	book[price] += delta
	if book[price] <= 0 {
		delete(book, price)
	}
}

// bestQuotes 汇总当前深度为 yes 侧最优报价。
// yes 档为买盘（最高价为 best bid），no 档换算为 yes 侧卖盘：
// no 买价 p 等价于 yes 卖价 100-p，最优 ask 取 no 最高买价的补价。
func (b *depthBook) bestQuotes() (yesBid, yesAsk int, bidDepth, askDepth int64) {
	for p, q := range b.yes {
		if p > yesBid {
			yesBid = p
		}
		bidDepth += q
	}
	bestNoBid := 0
	for p, q := range b.no {
		if p > bestNoBid {
			bestNoBid = p
		}
		askDepth += q
	}
	if bestNoBid > 0 {
		yesAsk = 100 - bestNoBid
	}
	return yesBid, yesAsk, bidDepth, askDepth
}

func (s *BookStream) handleMessage(message []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		streamLog.Debugf("解析订单簿消息失败: %v", err)
		return
	}

	var ticker string
	s.booksMu.Lock()
	switch env.Type {
	case "orderbook_snapshot":
		var snap snapshotMsg
		if err := json.Unmarshal(env.Msg, &snap); err != nil || snap.MarketTicker == "" {
			s.booksMu.Unlock()
			return
		}
		book, ok := s.books[snap.MarketTicker]
		if !ok {
			book = newDepthBook()
			s.books[snap.MarketTicker] = book
		}
		book.applySnapshot(snap)
		ticker = snap.MarketTicker
	case "orderbook_delta":
		var d deltaMsg
		if err := json.Unmarshal(env.Msg, &d); err != nil || d.MarketTicker == "" {
			s.booksMu.Unlock()
			return
		}
		book, ok := s.books[d.MarketTicker]
		if !ok {
			book = newDepthBook()
			s.books[d.MarketTicker] = book
		}
		book.applyDelta(d.Side, d.Price, d.Delta)
		ticker = d.MarketTicker
	default:
		s.booksMu.Unlock()
		return
	}
	yesBid, yesAsk, bidDepth, askDepth := s.books[ticker].bestQuotes()
	s.booksMu.Unlock()

	update := BookUpdate{
		Ticker:     ticker,
		YesBid:     yesBid,
		YesAsk:     yesAsk,
		BidDepth:   bidDepth,
		AskDepth:   askDepth,
		ReceivedAt: time.Now(),
	}

	// 非阻塞投递：缓冲满时丢最旧，消费方永远看到最新状态
	for {
		select {
		case s.updates <- update:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// Close 关闭流。可与消费循环并发调用。
func (s *BookStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closeC)
		s.connMu.Lock()
		if s.conn != nil {
			_ = s.conn.Close()
			s.conn = nil
		}
		s.connMu.Unlock()
	})
	return nil
}
