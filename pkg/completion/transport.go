package completion

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// newHTTPClient builds the single client the completion client owns. The
// three budgets are independent: the dialer and TLS handshake share the
// connect budget, http.Client.Timeout bounds the whole exchange and
// idleConn bounds each stretch of socket inactivity.
func newHTTPClient(connect, total, idle time.Duration) (*http.Client, *http.Transport) {
	dialer := &net.Dialer{
		Timeout:   connect,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return newIdleConn(conn, idle), nil
		},
		TLSHandshakeTimeout: connect,
		IdleConnTimeout:     idle,
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 8,
		ForceAttemptHTTP2:   true,
	}
	return &http.Client{Transport: transport, Timeout: total}, transport
}

// idleConn pushes its deadlines forward on every read and write, so a
// socket only fails after idle of inactivity.
type idleConn struct {
	net.Conn
	idle time.Duration
}

func newIdleConn(conn net.Conn, idle time.Duration) net.Conn {
	if idle <= 0 {
		return conn
	}
	return &idleConn{Conn: conn, idle: idle}
}

func (c *idleConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.idle)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *idleConn) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.idle)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

// bearerPolicy authenticates every request with the API key.
type bearerPolicy struct {
	apiKey   string
	folderID string
}

func (p *bearerPolicy) Do(req *policy.Request) (*http.Response, error) {
	req.Raw().Header.Set("Authorization", "Bearer "+p.apiKey)
	if p.folderID != "" {
		req.Raw().Header.Set("x-folder-id", p.folderID)
	}
	return req.Next()
}
