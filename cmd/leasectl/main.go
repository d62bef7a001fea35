package main

import (
	"context"
	"fmt"
	"os"

	"propertyops-backend/internal/cli"
	"propertyops-backend/internal/logger"
)

func main() {
	logger.Init(os.Getenv("APP_ENV"))
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
