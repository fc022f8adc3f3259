package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"exec-launcher/internal/config"
	"exec-launcher/internal/launcher"
)

func TestNewSinksParent(t *testing.T) {
	cfg := config.Config{
		LokiEndpoint: "http://loki:3100/loki/api/v1/push",
		Pushgateway:  "http://pushgateway:9091",
		Job:          "exec_launcher",
		StdoutEvents: true,
	}
	s := newSinks(cfg, launcher.RoleParent)

	assert.Equal(t, os.Stdout, s.Stdout)
	assert.NotNil(t, s.Loki)
	assert.NotNil(t, s.Metrics)
	assert.Equal(t, "http://pushgateway:9091", s.Pushgateway)
	assert.Equal(t, "exec_launcher", s.Job)
}

func TestNewSinksChild(t *testing.T) {
	cfg := config.Config{
		Pushgateway:  "http://pushgateway:9091",
		StdoutEvents: true,
	}
	s := newSinks(cfg, launcher.RoleChild)

	assert.Nil(t, s.Stdout)
	assert.Nil(t, s.Loki)
	assert.Nil(t, s.Metrics)
	assert.Empty(t, s.Pushgateway)
	assert.NotNil(t, s.File)
}
