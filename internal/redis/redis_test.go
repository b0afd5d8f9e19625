package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fakhrymubarak/weather-history-api/internal/config"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), config.StoreConfig{RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatalf("Expected Redis client to be created, got %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Errorf("Expected SET to succeed, got %v", err)
	}
	if got := mr.Exists("k"); !got {
		t.Error("Expected key to be written to miniredis")
	}
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := NewClient(context.Background(), config.StoreConfig{RedisAddr: addr})
	if err == nil {
		client.Close()
		t.Fatal("Expected error for unreachable redis")
	}
}

func TestNewClient_WrongPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	client, err := NewClient(context.Background(), config.StoreConfig{RedisAddr: mr.Addr(), RedisPassword: "wrong"})
	if err == nil {
		client.Close()
		t.Fatal("Expected authentication error")
	}
}
