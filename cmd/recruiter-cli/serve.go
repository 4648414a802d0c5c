package main

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/spf13/cobra"

	httpadapter "github.com/talentops/recruiter-agent/internal/adapters/http"
	"github.com/talentops/recruiter-agent/internal/bootstrap"
	"github.com/talentops/recruiter-agent/internal/config"
	"github.com/talentops/recruiter-agent/internal/registry"
)

func serveCmd() *cobra.Command {
	var portFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if portFlag != "" {
				cfg.Port = portFlag
			}

			app, err := bootstrap.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           httpadapter.NewServer(app.Service, cfg.JWTSigningKey),
				ReadHeaderTimeout: 10 * time.Second,
			}

			fmt.Println("recruiter API listening on port:", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&portFlag, "port", "", "override the listen port")
	return cmd
}

func functionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the backend operations the assistant can call",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.NewATS()
			if err != nil {
				return err
			}
			defs := reg.Definitions()
			sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
			for _, def := range defs {
				fmt.Printf("%-28s %s\n", def.Name, def.Description)
			}
			return nil
		},
	}
}
