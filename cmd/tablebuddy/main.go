package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/avvvet/tablebuddy/internal/app"
	"github.com/avvvet/tablebuddy/internal/chat"
	"github.com/avvvet/tablebuddy/internal/config"
	"github.com/avvvet/tablebuddy/internal/logger"
	"github.com/avvvet/tablebuddy/internal/memory"
	"github.com/avvvet/tablebuddy/internal/models"
)

const (
	help           = "Commands: /history shows the conversation, /reset starts over, /quit exits."
	turnErrorReply = "Sorry, something went wrong on my side. Please try again."
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.REPLLogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := cfg.Validate(); err != nil {
		zlog.Fatal("invalid configuration", zap.Error(err))
	}

	a, err := app.New(cfg, zlog, prometheus.NewRegistry())
	if err != nil {
		zlog.Fatal("failed to initialize chat service", zap.Error(err))
	}
	defer a.Close()

	if err := run(context.Background(), a.Chat, chat.NewSessionID(), os.Stdin, os.Stdout, cfg.TurnTimeout()); err != nil {
		zlog.Error("conversation ended with error", zap.Error(err))
	}
}

type conversation interface {
	Turn(ctx context.Context, sessionID, text string) (*models.ChatResponse, error)
	Transcript(ctx context.Context, sessionID string) (string, error)
	Reset(ctx context.Context, sessionID string) error
}

func run(ctx context.Context, svc conversation, sessionID string, in io.Reader, out io.Writer, turnTimeout time.Duration) error {
	fmt.Fprintf(out, "Assistant: %s\n%s\n", memory.Greeting, help)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "/quit", "/exit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "/help":
			fmt.Fprintln(out, help)
			continue
		case "/history":
			transcript, err := svc.Transcript(ctx, sessionID)
			if err != nil {
				fmt.Fprintf(out, "Could not load the conversation: %v\n", err)
				continue
			}
			fmt.Fprint(out, transcript)
			continue
		case "/reset":
			if err := svc.Reset(ctx, sessionID); err != nil {
				fmt.Fprintf(out, "Could not reset the conversation: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "Assistant: %s\n", memory.Greeting)
			continue
		}

		turnCtx, cancel := context.WithTimeout(ctx, turnTimeout)
		resp, err := svc.Turn(turnCtx, sessionID, text)
		cancel()
		if err != nil {
			fmt.Fprintf(out, "Assistant: %s\n", turnErrorReply)
			continue
		}
		fmt.Fprintf(out, "Assistant: %s\n", resp.Reply)
	}
}
