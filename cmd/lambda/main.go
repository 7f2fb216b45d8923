package main

import (
	"context"
	"log"
	"os"

	"github.com/Flarenzy/vpc-provisioner/internal/app"
	apilambda "github.com/Flarenzy/vpc-provisioner/internal/lambda"
	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	ctx := context.Background()

	cfg, err := app.LoadLambdaConfig()
	if err != nil {
		log.Fatal(err)
	}

	handler, cleanup, err := app.NewHandler(ctx, cfg, app.NewLogger(cfg, os.Stdout))
	if err != nil {
		log.Fatalf("building handler: %v", err)
	}
	defer cleanup()

	lambda.Start(apilambda.NewHandler(handler))
}
