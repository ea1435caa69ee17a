package main

import (
	"github.com/eoslike/tgcraid/internal/cobra"
	"github.com/eoslike/tgcraid/internal/config"
	"github.com/eoslike/tgcraid/internal/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := logger.InitLogger(config.LogLevelInfo); err != nil {
		logrus.Fatalf("Error initializing Logger : %v", err)
	}

	if err := cobra.ExecuteCmd(); err != nil {
		logrus.Fatalf("Error executing command: %v", err)
	}
}
