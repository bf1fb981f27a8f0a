package di

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"StockPull/pkg/config"
	applogger "StockPull/pkg/logger"
)

func TestProvideRowSourceRejectsKafka(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = "kafka"
	cfg.Kafka.Brokers = []string{"127.0.0.1:1"}

	rows, cleanup, err := ProvideRowSource(cfg, applogger.Nop())
	assert.ErrorContains(t, err, "cannot be exported")
	assert.Nil(t, rows)
	assert.Nil(t, cleanup)
}

func TestProvideRowSourceUnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = "sqlite"

	_, _, err := ProvideRowSource(cfg, applogger.Nop())
	assert.ErrorContains(t, err, "unknown storage backend")
}
