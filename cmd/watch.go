package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	realtimeadapter "github.com/BitForged/Compass/internal/adapters/realtime"
	"github.com/BitForged/Compass/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const msgRealtimeRefused = "The realtime server refused the connection."

var errRealtimeRefused = errors.New("realtime server refused the connection")

// outgoingEvent is an event sent after every (re)connect, e.g. a job
// subscription.
type outgoingEvent struct {
	name string
	data any
}

// parseOutgoingEvent reads "name" or "name=<json>". A payload that is not
// JSON is sent as a string.
func parseOutgoingEvent(raw string) (outgoingEvent, error) {
	name, payload, hasPayload := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return outgoingEvent{}, fmt.Errorf("invalid --emit %q: event name is empty", raw)
	}
	if !hasPayload {
		return outgoingEvent{name: name}, nil
	}
	if json.Valid([]byte(payload)) {
		return outgoingEvent{name: name, data: json.RawMessage(payload)}, nil
	}
	return outgoingEvent{name: name, data: payload}, nil
}

type watchLine struct {
	Time  time.Time         `json:"time"`
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args,omitempty"`
}

func newWatchCmd(app *app) *cobra.Command {
	var (
		events      []string
		emits       []string
		metricsAddr string
		duration    time.Duration
		count       int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow realtime events (job progress, queue updates) as JSON lines",
		Args:  cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			outgoing := make([]outgoingEvent, 0, len(emits))
			for _, raw := range emits {
				event, err := parseOutgoingEvent(raw)
				if err != nil {
					return err
				}
				outgoing = append(outgoing, event)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if duration > 0 {
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			if metricsAddr != "" {
				stop, err := serveMetrics(app, metricsAddr)
				if err != nil {
					return err
				}
				defer stop()
			}

			bridge, err := app.newBridge()
			if err != nil {
				return fmt.Errorf("create realtime bridge: %w", err)
			}

			if len(events) == 0 {
				events = []string{realtimeadapter.AnyEvent}
			}

			var (
				mu      sync.Mutex
				printed int
				ids     = make([]realtimeadapter.ListenerID, 0, len(events))
			)
			out := cmd.OutOrStdout()
			printEvent := func(e realtimeadapter.Event) {
				mu.Lock()
				defer mu.Unlock()
				if count > 0 && printed >= count {
					return
				}

				line := watchLine{Time: app.now().UTC(), Event: e.Name, Args: e.Args}
				if err := json.NewEncoder(out).Encode(line); err != nil {
					app.log.Warn("write realtime event", "error", err)
				}
				printed++
				if count > 0 && printed >= count {
					for i, id := range ids {
						bridge.Off(events[i], id)
					}
					cancel()
				}
			}

			mu.Lock()
			for _, event := range events {
				ids = append(ids, bridge.On(event, printEvent))
			}
			mu.Unlock()

			bridge.On(realtimeadapter.EventConnect, func(realtimeadapter.Event) {
				for _, event := range outgoing {
					if err := bridge.Emit(ctx, event.name, event.data); err != nil {
						app.log.Warn("emit realtime event", "event", event.name, "error", err)
					}
				}
			})

			var refused atomic.Bool
			bridge.On(realtimeadapter.EventConnectError, func(realtimeadapter.Event) {
				if refused.CompareAndSwap(false, true) {
					app.alerts.Add(msgRealtimeRefused, domain.SeverityError)
				}
			})

			if err := bridge.Connect(ctx); err != nil {
				return fmt.Errorf("connect realtime: %w", err)
			}
			defer func() { _ = bridge.Close() }()

			select {
			case <-ctx.Done():
			case <-bridge.Done():
			}
			if refused.Load() {
				return errRealtimeRefused
			}
			return nil
		}),
	}

	cmd.Flags().StringSliceVar(&events, "event", nil, "Only print these events (repeatable, default all)")
	cmd.Flags().StringArrayVar(&emits, "emit", nil, "Send event=<json> after every connect (repeatable)")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after printing this many events")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")
	cmd.Flags().DurationVar(&duration, "for", 0, "Stop after this long (default until interrupted)")

	return cmd
}

func serveMetrics(app *app, addr string) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.log.Error("metrics server", "error", err)
		}
	}()
	app.log.Info("serving metrics", "addr", listener.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}
