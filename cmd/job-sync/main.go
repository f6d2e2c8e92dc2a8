package main

import (
	"context"
	"os"

	"github.com/kirychukyurii/webitel-job-sync/internal/cli"
	"github.com/kirychukyurii/webitel-job-sync/internal/logger"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.New().Error("job-sync failed",
			"error", err.Error(),
		)
		os.Exit(1)
	}
}
