package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	index := os.Getenv("ROM_INDEX")

	tui := NewTUI(ctx, addr, index)
	go func() {
		<-ctx.Done()
		tui.Stop()
	}()

	tui.Run()
}
