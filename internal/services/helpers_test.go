package services

import (
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
)

func testLogger() *logger.Logger {
	log, err := logger.New("development")
	if err != nil {
		panic(err)
	}
	return log
}
