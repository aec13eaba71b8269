package main

import (
	"log"
	"net/http"

	"github.com/devloic/kurve/config"
	"github.com/devloic/kurve/network"
	"github.com/devloic/kurve/room"
)

func main() {
	cfg := config.Load()

	manager := room.NewManager(
		room.WithTickHz(cfg.TickHz),
		room.WithCountdownStep(cfg.CountdownStep),
		room.WithGraceWindow(cfg.GraceWindow),
	)
	defer manager.StopAll()

	srv := network.NewServer(manager)

	log.Printf("listening on %s (ws endpoint: /ws)", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, srv.Handler()))
}
