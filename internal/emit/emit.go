// Package emit streams a resolution artifact to a socket.io endpoint, so a
// dashboard can render the variable table and the shape diagnostic graph
// live while models are being iterated on.
package emit

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/modelgraph/internal/ctxlog"
)

// Options configures one emission.
type Options struct {
	// URL is the socket.io endpoint, e.g. "http://localhost:3000/socket.io/".
	URL string
	// Namespace is the socket.io namespace to join; empty means the root
	// namespace.
	Namespace string
	// Event is the event name the payload is emitted under.
	Event string
	// Timeout bounds the connect-and-emit round trip.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// DefaultEvent is the event name used when Options.Event is empty.
const DefaultEvent = "resolution"

// Send connects to the endpoint, emits the payload once and disconnects.
func Send(ctx context.Context, opts Options, payload any) error {
	logger := ctxlog.FromContext(ctx).With("url", opts.URL, "event", opts.Event)
	logger.Debug("Emitter started.")
	defer logger.Debug("Emitter finished.")

	event := opts.Event
	if event == "" {
		event = DefaultEvent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return fmt.Errorf("failed to parse emit URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	sockOpts := socket.DefaultOptions()
	sockOpts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(opts.Namespace, sockOpts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	done := make(chan error, 1)

	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Connected, emitting resolution.", "sid", io.Id())
		io.Emit(event, payload)
		done <- nil
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				done <- err
				return
			}
		}
		done <- fmt.Errorf("socket.io connection failed")
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		return fmt.Errorf("timed out after %s while emitting to '%s'", timeout, opts.URL)
	case err := <-done:
		return err
	}
}
