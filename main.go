package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/op/go-logging"

	"consumer360/cmd"
)

var log = logging.MustGetLogger("log")

func main() {
	// Ctrl-C annule les requêtes en cours ; la transaction d'écriture est annulée avec.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		log.Errorf("%v", err)
		stop()
		os.Exit(1)
	}
}
