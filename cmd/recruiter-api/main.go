package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/talentops/recruiter-agent/internal/adapters/http"
	"github.com/talentops/recruiter-agent/internal/bootstrap"
	"github.com/talentops/recruiter-agent/internal/config"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("error assembling service: %v", err)
	}
	defer app.Close()

	handler := httpadapter.NewServer(app.Service, cfg.JWTSigningKey)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("recruiter API listening on port:", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
