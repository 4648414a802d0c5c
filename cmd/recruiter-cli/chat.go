package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talentops/recruiter-agent/internal/app/conversation"
	"github.com/talentops/recruiter-agent/internal/bootstrap"
	"github.com/talentops/recruiter-agent/internal/config"
	"github.com/talentops/recruiter-agent/internal/domain"
)

func chatCmd() *cobra.Command {
	var modelFlag string
	var mockFlag bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive recruiting session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if modelFlag != "" {
				cfg.ChatModel = modelFlag
			}
			if mockFlag {
				cfg.Provider = config.ProviderMock
			}

			app, err := bootstrap.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			fmt.Println("Recruiting assistant ready. Type a message, or \"exit\" to quit.")

			var sessionID domain.SessionID
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					break
				}

				out, err := app.Service.Chat(cmd.Context(), conversation.ChatInput{
					SessionID: sessionID,
					Message:   line,
				})
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				sessionID = out.SessionID
				fmt.Println(out.Response)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&modelFlag, "model", "", "override the chat model id")
	cmd.Flags().BoolVar(&mockFlag, "mock", false, "use the scripted model instead of a real provider")
	return cmd
}
