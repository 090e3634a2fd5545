package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"intakeflow/auth"
	"intakeflow/client"
	"intakeflow/clinician"
	"intakeflow/comms"
	"intakeflow/db"
	"intakeflow/mail"
	"intakeflow/outreach"
	"intakeflow/settings"
	"intakeflow/template"
)

func main() {
	ctx := context.Background()

	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	mailBaseURL := os.Getenv("MAIL_API_BASE_URL")
	if mailBaseURL == "" {
		log.Fatal("MAIL_API_BASE_URL must be set")
	}

	cfg, err := settings.LoadOutreachConfig(ctx, settings.NewPGProvider(pool))
	if err != nil {
		log.Fatalf("load outreach config: %v", err)
	}

	clientRepo := client.NewRepository(pool)
	commsRepo := comms.NewRepository(pool)
	ledger := outreach.NewLedger(outreach.NewAttemptRepository(pool))
	reconciler := outreach.NewReconciler(ledger, commsRepo, mail.NewProviderClient(mailBaseURL))

	server := &Server{
		authService:      auth.NewService(auth.NewRepository(pool), jwtSecret),
		clientService:    client.NewService(clientRepo),
		clinicianService: clinician.NewService(clinician.NewRepository(pool)),
		templateService:  template.NewService(template.NewRepository(pool)),
		ledger:           ledger,
		commsRepo:        commsRepo,
		checker:          outreach.NewOrchestrator(clientRepo, ledger, reconciler, cfg),
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("intakeflow api listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
