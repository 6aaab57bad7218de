package service

import (
	"codeleap_backend/pkg/logger"

	"go.uber.org/zap"
)

func initTestLogger() {
	if logger.Log == nil {
		logger.Log = zap.NewNop()
	}
}
