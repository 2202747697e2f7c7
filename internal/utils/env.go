package utils

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadEnv reads .env (or the given files) into the process environment.
// Variables already set win over file values.
func LoadEnv(files ...string) error {
	return godotenv.Load(files...)
}

func LogEnvLoad(logger *zap.Logger, err error) {
	if err != nil {
		logger.Warn("ENV file not found or failed to load, using defaults")
	} else {
		logger.Info("ENV file loaded successfully")
	}
}
