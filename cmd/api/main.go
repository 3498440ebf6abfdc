package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"rentflow.app/internal/agent"
	"rentflow.app/internal/application"
	"rentflow.app/internal/blob"
	"rentflow.app/internal/config"
	"rentflow.app/internal/httpapi"
	"rentflow.app/internal/notify"
	"rentflow.app/internal/obs"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("RENTFLOW_COMMIT"))

	cfg := config.FromEnv()

	// Postgres when a DSN is set; in-memory stores otherwise so the
	// service stays runnable in development without a database.
	var (
		db         *sql.DB
		agentStore agent.Store
		appStore   application.Store
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		agentStore = agent.NewPGStore(db)
		appStore = application.NewPGStore(db)
	} else {
		log.Println("RENTFLOW_PG_DSN is not set, using in-memory stores (data is lost on restart)")
		agentStore = agent.NewMemoryStore()
		appStore = application.NewMemoryStore()
	}

	signer, err := agent.NewTokenSigner(cfg.AuthSecret, "rentflow", agent.WithTokenTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("token signer: %v", err)
	}
	agents := agent.NewService(agentStore, signer)

	blobs, err := blob.NewDiskStore(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	var mailer notify.Mailer = notify.Discard{}
	if cfg.SMTP.Host != "" {
		mailer = &notify.SMTPMailer{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			StartTLS: cfg.SMTP.StartTLS,
		}
	}
	dispatcher := notify.NewDispatcher(agentStore, mailer, cfg.FrontendURL)

	apps := application.NewService(appStore, cfg.FrontendURL, application.WithNotifier(dispatcher))

	api := httpapi.New(agents, apps, blobs, httpapi.ReadyProbe{DB: db}, httpapi.Options{
		Version:        version,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RateBurst:      cfg.RateBurst,
		RatePerSecond:  cfg.RatePerSecond,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting rentflow-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
