package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/nikitashlyahktin/VotingSystem/docs"
	"github.com/nikitashlyahktin/VotingSystem/internal/config"
	"github.com/nikitashlyahktin/VotingSystem/internal/domain/poll"
	"github.com/nikitashlyahktin/VotingSystem/internal/domain/user"
	api "github.com/nikitashlyahktin/VotingSystem/internal/http"
	"github.com/nikitashlyahktin/VotingSystem/internal/metrics"
	"github.com/nikitashlyahktin/VotingSystem/internal/platform/database"
	jwtpkg "github.com/nikitashlyahktin/VotingSystem/internal/platform/jwt"
	"github.com/nikitashlyahktin/VotingSystem/internal/repository/memory"
	"github.com/nikitashlyahktin/VotingSystem/internal/repository/postgres"
	"github.com/nikitashlyahktin/VotingSystem/internal/worker"
)

// @title           Voting System API
// @version         1.0
// @description     Polls with revisable ballots and JWT auth
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg := config.Load()

	metrics.Register()

	var (
		db       *sql.DB
		userRepo user.Repository
		pollRepo poll.Repository
	)

	if cfg.DB_DSN == "" {
		log.Println("DB_DSN not set, using in-memory store")
		userRepo = memory.NewUserRepo()
		pollRepo = memory.NewPollRepo()
	} else {
		var err error
		db, err = database.NewPostgres(cfg.DB_DSN)
		if err != nil {
			log.Fatalf("db connect error: %v", err)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(db); err != nil {
			log.Fatalf("schema error: %v", err)
		}

		userRepo = postgres.NewUserRepo(db)
		pollRepo = postgres.NewPollRepo(db)
	}

	userSvc := user.NewService(userRepo)
	pollSvc := poll.NewService(pollRepo)

	jwtMgr := jwtpkg.NewManager(cfg.JWTSecret, "")

	voteCh := make(chan worker.VoteEvent, 100)
	voteWorker := worker.NewVoteWorker(voteCh)

	router := api.NewRouter(userSvc, pollSvc, jwtMgr, cfg.TokenTTL, voteCh, db)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go voteWorker.Run(ctx)

	go func() {
		log.Printf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	<-stop
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown error: %v", err)
	}

	log.Println("server stopped")
}
