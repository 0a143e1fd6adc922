package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orderdesk/orderdesk/internal/agent"
	"github.com/orderdesk/orderdesk/internal/config"
	"github.com/orderdesk/orderdesk/internal/server"
)

func newChatCmd() *cobra.Command {
	var (
		serverURL string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one message to a running chat server and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			if serverURL == "" {
				cfg, err := config.Load(paths.Config)
				if err != nil {
					return err
				}
				serverURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
			}

			payload, err := json.Marshal(server.ChatRequest{
				Message:   message,
				SessionID: sessionID,
			})
			if err != nil {
				return err
			}

			resp, err := http.Post(serverURL+"/api/chat", "application/json", bytes.NewReader(payload))
			if err != nil {
				return fmt.Errorf("calling chat server: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			var result agent.TurnResult
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
			}

			fmt.Println(result.Response)
			if len(result.FunctionsCalled) > 0 {
				for _, call := range result.FunctionsCalled {
					fmt.Fprintf(cmd.ErrOrStderr(), "[called %s]\n", call.FunctionName)
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "[session=%s]\n", result.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "chat server base URL (default from config)")
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID to continue a conversation")

	return cmd
}
