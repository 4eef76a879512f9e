// Command lspcat bridges an LSP client speaking stdio to a server
// listening on TCP, the "two canonical wirings" of spec.md §6: most
// editors spawn a server over stdio, but lspcore servers are equally
// happy behind --listen. lspcat lets a stdio-only editor reach one.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	var dial string

	cmd := &cobra.Command{
		Use:   "lspcat",
		Short: "Bridge stdio to a TCP-listening LSP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dial == "" {
				return fmt.Errorf("--dial is required (e.g. --dial localhost:7777)")
			}
			return bridge(cmd.Context(), dial)
		},
	}
	cmd.Flags().StringVar(&dial, "dial", "", "TCP address of the LSP server to bridge to")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "lspcat:", err)
		os.Exit(1)
	}
}

func bridge(ctx context.Context, addr string) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	var wg sync.WaitGroup
	wg.Add(2)

	errs := make(chan error, 2)
	go func() {
		defer wg.Done()
		_, err := io.Copy(conn, os.Stdin)
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := io.Copy(os.Stdout, conn)
		errs <- err
	}()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil && err != io.EOF {
			return err
		}
	}
	return nil
}
