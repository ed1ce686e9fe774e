package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/rnet"
)

// tick is the frame loop interval of both ends.
const tick = 5 * time.Millisecond

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port    uint16
		clients uint32
		host    string
		count   int
	)

	root := &cobra.Command{
		Use:           "echo",
		Short:         "Length-prefixed echo over rnet sessions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().Uint16Var(&port, "port", 9000, "TCP port")

	server := &cobra.Command{
		Use:   "server",
		Short: "Echo every frame back to its sender",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), port, clients)
		},
	}
	server.Flags().Uint32Var(&clients, "clients", 16, "expected number of clients")

	client := &cobra.Command{
		Use:   "client [message...]",
		Short: "Send messages and print the echoes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd.Context(), host, port, args, count)
		},
	}
	client.Flags().StringVar(&host, "host", "127.0.0.1", "server host")
	client.Flags().IntVar(&count, "count", 1, "times to send each message")

	demo := &cobra.Command{
		Use:   "demo",
		Short: "Run a server and a client in one process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), port)
		},
	}

	root.AddCommand(server, client, demo)
	return root
}

// echoDecoder sends every length-prefixed frame back to the session it came from.
func echoDecoder() rnet.FrameDecoder {
	return rnet.DecoderFuncs{
		CanHandle: func(first byte, buffered int) bool {
			return buffered >= 1+int(first)
		},
		OnFrame: func(s *rnet.Session) error {
			n, err := s.ReadByte()
			if err != nil {
				return err
			}
			payload, err := s.Next(int(n))
			if err != nil {
				return err
			}
			frame, err := rnet.EncodeLengthPrefixed(payload)
			if err != nil {
				return err
			}
			return s.Send(frame)
		},
	}
}

func runServer(ctx context.Context, port uint16, clients uint32) error {
	listener, err := rnet.StartServer(port, clients)
	if err != nil {
		return err
	}

	hub, err := rnet.NewHub(listener, echoDecoder(),
		rnet.HubOnCloseOption(func(s *rnet.Session, reason error) {
			slog.Info("client gone", "socket", s.Socket(), "reason", reason)
		}),
	)
	if err != nil {
		listener.Close()
		return err
	}

	err = hub.Run(ctx, tick)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runClient(ctx context.Context, host string, port uint16, messages []string, count int) error {
	if len(messages) == 0 {
		messages = []string{"hello"}
	}

	c, err := rnet.StartClient(host, port)
	if err != nil {
		return err
	}
	defer c.Close()

	want := 0
	for i := 0; i < count; i++ {
		for _, m := range messages {
			frame, err := rnet.EncodeLengthPrefixed([]byte(m))
			if err != nil {
				return err
			}
			if err := c.Send(frame); err != nil {
				return err
			}
			want++
		}
	}
	if err := c.Flush(); err != nil {
		return err
	}

	got := 0
	printer := rnet.LengthPrefixDecoder(func(payload []byte) error {
		got++
		fmt.Printf("echo %d: %s\n", got, payload)
		return nil
	})

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for got < want {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if bytes, msgs := c.Pending(); bytes > 0 || msgs > 0 {
				if err := c.Flush(); err != nil {
					return err
				}
			}
			if rnet.SocketsReady(c) && !c.ReadAndDispatch(printer) {
				return c.Err()
			}
		}
	}
	return nil
}

func runDemo(ctx context.Context, port uint16) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listener, err := rnet.StartServer(port, 1)
	if err != nil {
		return err
	}
	bound, err := listener.LocalPort()
	if err != nil {
		listener.Close()
		return err
	}

	hub, err := rnet.NewHub(listener, echoDecoder())
	if err != nil {
		listener.Close()
		return err
	}

	group, child := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := hub.Run(child, tick)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		defer cancel()
		return runClient(child, "127.0.0.1", bound, []string{"ping", "pong"}, 2)
	})
	return group.Wait()
}
