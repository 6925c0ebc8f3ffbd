package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/strayfire/scrimhub/internal/db"
	"github.com/strayfire/scrimhub/internal/events"
	"github.com/strayfire/scrimhub/internal/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	database := db.InitDB()
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	middleware.InitAuth()

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Store = sqlite3store.New(database.DB)

	missionURL := os.Getenv("MISSION_URL")
	webhookURL := os.Getenv("DISCORD_WEBHOOK_URL")

	var emitter events.Emitter = events.Discard{}
	if missionURL != "" || webhookURL != "" {
		dispatcher := events.NewDispatcher(256,
			events.NewMissionForwarder(missionURL),
			events.NewDiscordAnnouncer(webhookURL),
		)
		defer dispatcher.Close()
		emitter = dispatcher
	}

	router := newRouter(sessionManager, emitter)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Println("Server starting on", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal(err)
	}
}
