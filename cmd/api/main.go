package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Flarenzy/vpc-provisioner/internal/app"
)

//	@title			VPC Provisioner API
//	@version		1.0
//	@description	Creates, inspects and tears down VPCs together with their subnets.

//	@host		localhost:4040
//	@BasePath	/

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
