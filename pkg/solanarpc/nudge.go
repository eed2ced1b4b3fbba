package solanarpc

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	nudgeMaxReconnects  = 10
	nudgeReconnectDelay = 5 * time.Second
)

// Nudger maintains a WebSocket logsSubscribe per watched wallet and invokes
// the callback whenever a wallet is mentioned in fresh logs. It is a fast
// path only: the poll loop stays the source of truth, a nudge merely makes
// the next cycle start sooner.
type Nudger struct {
	endpoint  string
	walletsFn func() []string
	onMention func(address string)

	mu     sync.Mutex
	conn   *websocket.Conn
	stopCh chan struct{}
}

// NewNudger creates a Nudger. walletsFn supplies the current wallet address
// snapshot at (re)connect time, so hot reloads take effect on reconnect.
func NewNudger(endpoint string, walletsFn func() []string, onMention func(address string)) *Nudger {
	return &Nudger{
		endpoint:  endpoint,
		walletsFn: walletsFn,
		onMention: onMention,
		stopCh:    make(chan struct{}),
	}
}

// Start runs the connect/subscribe/read loop in a goroutine.
func (n *Nudger) Start() {
	go n.run()
}

// Stop terminates the loop and closes the connection.
func (n *Nudger) Stop() {
	close(n.stopCh)
	n.mu.Lock()
	if n.conn != nil {
		n.conn.Close()
	}
	n.mu.Unlock()
}

func (n *Nudger) run() {
	reconnects := 0
	for {
		select {
		case <-n.stopCh:
			return
		default:
		}

		if err := n.connectAndRead(); err != nil {
			reconnects++
			log.WithFields(log.Fields{
				"endpoint":   n.endpoint,
				"reconnects": reconnects,
				"error":      err.Error(),
			}).Warn("WebSocket nudge disconnected")
			if reconnects >= nudgeMaxReconnects {
				log.Error("WebSocket nudge giving up after max reconnect attempts; polling continues unaided")
				return
			}
			select {
			case <-n.stopCh:
				return
			case <-time.After(nudgeReconnectDelay):
			}
			continue
		}
		// Clean shutdown.
		return
	}
}

type wsSubscribeRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsInbound struct {
	ID     int             `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Method string          `json:"method,omitempty"`
	Params *wsNotifyParams `json:"params,omitempty"`
}

type wsNotifyParams struct {
	Subscription uint64          `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

func (n *Nudger) connectAndRead() error {
	c, _, err := websocket.DefaultDialer.Dial(n.endpoint, nil)
	if err != nil {
		return err
	}
	n.mu.Lock()
	n.conn = c
	n.mu.Unlock()
	defer c.Close()

	wallets := n.walletsFn()
	requestToWallet := make(map[int]string, len(wallets))
	subToWallet := make(map[uint64]string, len(wallets))

	for i, addr := range wallets {
		reqID := i + 1
		requestToWallet[reqID] = addr
		msg := wsSubscribeRequest{
			Jsonrpc: "2.0",
			ID:      reqID,
			Method:  "logsSubscribe",
			Params: []interface{}{
				map[string]interface{}{"mentions": []string{addr}},
				map[string]interface{}{"commitment": "confirmed"},
			},
		}
		if err := c.WriteJSON(msg); err != nil {
			return err
		}
	}
	log.WithFields(log.Fields{"wallets": len(wallets)}).Info("WebSocket nudge subscribed")

	for {
		select {
		case <-n.stopCh:
			return nil
		default:
		}

		_, message, err := c.ReadMessage()
		if err != nil {
			select {
			case <-n.stopCh:
				return nil
			default:
			}
			return err
		}

		var in wsInbound
		if err := json.Unmarshal(message, &in); err != nil {
			log.Debugf("WebSocket nudge: unparseable frame: %v", err)
			continue
		}

		switch {
		case in.ID != 0 && in.Result != nil:
			// Subscription confirmation: map server sub ID to wallet.
			var subID uint64
			if err := json.Unmarshal(in.Result, &subID); err == nil {
				if addr, ok := requestToWallet[in.ID]; ok {
					subToWallet[subID] = addr
				}
			}
		case in.Method == "logsNotification" && in.Params != nil:
			if addr, ok := subToWallet[in.Params.Subscription]; ok {
				n.onMention(addr)
			}
		}
	}
}
