package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "minewatch",
		User:        "default",
		Password:    "secret",
		DialTimeout: 5 * time.Second,
		ReadTimeout: 10 * time.Second,
	}
	assert.Equal(t, "clickhouse://default:secret@ch:9000/minewatch?dial_timeout=5s&read_timeout=10s", buildDSN(cfg))

	cfg.UseHTTP = true
	cfg.DialTimeout, cfg.ReadTimeout = 0, 0
	cfg.AsyncInsert, cfg.WaitForAsync = true, true
	cfg.MaxExecTime = 30 * time.Second
	assert.Equal(t, "http://default:secret@ch:9000/minewatch?async_insert=1&max_execution_time=30&wait_for_async_insert=1", buildDSN(cfg))
}

func TestBuildDSN_EscapesCredentials(t *testing.T) {
	cfg := ClientConfig{Host: "ch", Port: 9000, Database: "db", User: "u", Password: "p@ss/word"}
	assert.Equal(t, "clickhouse://u:p%40ss%2Fword@ch:9000/db", buildDSN(cfg))
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient(WithHost(""))
	assert.Error(t, err)
}
