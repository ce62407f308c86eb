package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/simonvc/bookkeeper/internal/client"
	"github.com/simonvc/bookkeeper/internal/logging"
	"github.com/simonvc/bookkeeper/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const embeddedAddr = "127.0.0.1:8888"

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Client.OwnerID == "" {
			return errOwnerRequired
		}
		serverAddr := cfg.Client.Server

		if !cmd.Flags().Changed("server") {
			// Start embedded server in background. Its logs would draw over
			// the alternate screen, so they are dropped.
			stk, err := buildStack(cmd.Context(), logging.Silent(), embeddedAddr)
			if err != nil {
				return err
			}
			defer stk.Close()

			errCh := make(chan error, 1)
			go func() {
				if err := stk.server.ListenAndServe(); err != nil {
					errCh <- err
				}
			}()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = stk.server.Shutdown(ctx)
			}()
			serverAddr = "http://" + embeddedAddr

			// Wait for server to be ready
			c := client.New(serverAddr, cfg.Client.OwnerID)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for {
				if err := c.Ping(ctx); err == nil {
					break
				}
				select {
				case err := <-errCh:
					return fmt.Errorf("embedded server: %w", err)
				case <-ctx.Done():
					return fmt.Errorf("timeout waiting for embedded server")
				case <-time.After(50 * time.Millisecond):
				}
			}
		}

		c := client.New(serverAddr, cfg.Client.OwnerID).WithActor(cfg.Client.OwnerID)
		app := tui.NewApp(c)
		p := tea.NewProgram(app, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
