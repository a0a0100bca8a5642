package check

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/sync/errgroup"

	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/policy"
)

// PortStateChecker probes TCP ports and compares their state against the
// policy. Probes are plain TCP connects; a successful connect means open,
// anything else (refused, timeout) means closed.
//
// Design decision: We use connect scans rather than SYN scans because:
//  1. Connect scans need no raw sockets, so the tool runs unprivileged
//  2. The targets are the local host or nearby segments, where the speed
//     advantage of half-open scans is irrelevant
//  3. A completed connect also lets us read a service banner
type PortStateChecker struct {
	// dialer establishes connections, optionally through a SOCKS5 jump host.
	dialer proxy.Dialer

	// timeout is the per-connection timeout.
	timeout time.Duration

	// concurrency bounds parallel connects.
	concurrency int
}

// PortStateCheckerOption configures a PortStateChecker.
type PortStateCheckerOption func(*PortStateChecker)

// WithPortTimeout sets the per-connection timeout.
func WithPortTimeout(timeout time.Duration) PortStateCheckerOption {
	return func(c *PortStateChecker) {
		c.timeout = timeout
	}
}

// WithPortConcurrency bounds the number of parallel connects.
func WithPortConcurrency(n int) PortStateCheckerOption {
	return func(c *PortStateChecker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewPortStateChecker creates a new port state checker.
// Pass proxy.Direct for local scans, or a SOCKS5 dialer to probe ports
// reachable only through a jump host.
func NewPortStateChecker(dialer proxy.Dialer, opts ...PortStateCheckerOption) *PortStateChecker {
	c := &PortStateChecker{
		dialer:      dialer,
		timeout:     5 * time.Second,
		concurrency: 16,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the check type name.
func (c *PortStateChecker) Type() string {
	return policy.CheckPortState
}

// probeResult is the outcome of probing a single port.
type probeResult struct {
	port   int
	open   bool
	banner string
}

// Check probes every port the control lists and judges the set against the
// required state ("open" or "closed", defaulting to closed). Ports are probed
// concurrently with a bounded worker count.
func (c *PortStateChecker) Check(ctx context.Context, control *policy.Control) (*CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := NewCheckResult()

	if len(control.Ports) == 0 {
		result.Status = model.StatusError
		result.Message = "control lists no ports to probe"
		return result, nil
	}

	host := control.Target
	if host == "" {
		host = "127.0.0.1"
	}

	state := control.RequiredState()
	if state == "" {
		state = "closed"
	}
	if state != "open" && state != "closed" {
		result.Status = model.StatusError
		result.Message = fmt.Sprintf("unknown required port state %q", state)
		return result, nil
	}
	result.Expected = state

	probes, err := c.probeAll(ctx, host, control.Ports)
	if err != nil {
		return nil, err
	}

	var open, closed []int
	for _, p := range probes {
		if p.open {
			open = append(open, p.port)
		} else {
			closed = append(closed, p.port)
		}
	}
	sort.Ints(open)
	sort.Ints(closed)
	result.Actual = fmt.Sprintf("open=%v closed=%v", open, closed)

	switch state {
	case "closed":
		for _, p := range probes {
			if !p.open {
				continue
			}
			location := net.JoinHostPort(host, strconv.Itoa(p.port))
			f := model.NewFinding("port_unexpected_open",
				fmt.Sprintf("Port %d is open but required closed", p.port),
				strconv.Itoa(p.port), location)
			result.AddFinding(bindFinding(control, f))
			if p.banner != "" {
				bf := model.NewFinding("service_banner",
					fmt.Sprintf("Service on port %d discloses a banner", p.port),
					p.banner, location)
				result.AddFinding(bindFinding(control, bf))
			}
		}
		if len(open) > 0 {
			result.Fail(fmt.Sprintf("%d of %d probed ports on %s are open but required closed", len(open), len(probes), host))
		} else {
			result.Pass(fmt.Sprintf("all %d probed ports on %s are closed", len(probes), host))
		}

	case "open":
		for _, p := range probes {
			location := net.JoinHostPort(host, strconv.Itoa(p.port))
			if p.open {
				f := model.NewFinding("port_open",
					fmt.Sprintf("Port %d is open as required", p.port),
					strconv.Itoa(p.port), location)
				result.AddFinding(bindFinding(control, f))
				continue
			}
			f := model.NewFinding("service_not_running",
				fmt.Sprintf("Port %d is closed but required open", p.port),
				strconv.Itoa(p.port), location)
			result.AddFinding(bindFinding(control, f))
		}
		if len(closed) > 0 {
			result.Fail(fmt.Sprintf("%d of %d probed ports on %s are closed but required open", len(closed), len(probes), host))
		} else {
			result.Pass(fmt.Sprintf("all %d probed ports on %s are open", len(probes), host))
		}
	}

	return result, nil
}

// probeAll probes the given ports concurrently.
// Worker count is bounded so a long port list cannot exhaust descriptors.
func (c *PortStateChecker) probeAll(ctx context.Context, host string, ports []int) ([]probeResult, error) {
	var mu sync.Mutex
	results := make([]probeResult, 0, len(ports))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, port := range ports {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			probe := c.probe(ctx, host, port)
			mu.Lock()
			results = append(results, probe)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].port < results[j].port })
	return results, nil
}

// probe connects to one port and reads a best-effort banner.
// Connection failures are not errors; they mean the port is closed.
func (c *PortStateChecker) probe(ctx context.Context, host string, port int) probeResult {
	result := probeResult{port: port}
	address := net.JoinHostPort(host, strconv.Itoa(port))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialWithContext(ctx, "tcp", address)
	if err != nil {
		return result
	}
	defer conn.Close()

	result.open = true
	result.banner = readBanner(conn)
	return result
}

// readBanner reads whatever the service volunteers within a short deadline.
// Many services (SSH, SMTP, FTP) greet immediately; silence is normal for
// the rest and not an error.
func readBanner(conn net.Conn) string {
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		return ""
	}
	reader := bufio.NewReader(conn)
	banner, err := reader.ReadString('\n')
	if err != nil && banner == "" {
		return ""
	}
	return strings.TrimSpace(banner)
}

// dialWithContext dials a connection respecting context cancellation.
//
// Design decision: We implement our own context-aware dial because
// net.Dialer.DialContext requires a network and address, but we need
// to support custom dialers (like SOCKS5 proxies).
func (c *PortStateChecker) dialWithContext(ctx context.Context, network, address string) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}

	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := c.dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if result := <-resultCh; result.conn != nil {
				result.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case result := <-resultCh:
		return result.conn, result.err
	}
}
