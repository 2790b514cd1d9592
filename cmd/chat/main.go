// Command chat is an interactive terminal front end for the assistant: one
// line in, one rendered reply out.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"garage-assistant/internal/chat"
	"garage-assistant/internal/common/config"
	"garage-assistant/internal/common/database"
	"garage-assistant/internal/common/logger"
	"garage-assistant/internal/gateway/genai"
	"garage-assistant/internal/repository"
	"garage-assistant/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	// Keep the terminal clean; structured logs would drown the conversation.
	log := logger.NewNoOpLogger()

	postgres, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect to postgres:", err)
		os.Exit(1)
	}
	defer func() { _ = postgres.Close() }()

	store := repository.NewPostgres(postgres.GetDB(), log)
	if err := store.EnsureSchema(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "failed to ensure database schema:", err)
		os.Exit(1)
	}

	classifier, err := genai.NewClient(&genai.Config{
		BaseURL: cfg.GenAI.BaseURL,
		APIKey:  cfg.GenAI.APIKey,
		Model:   cfg.GenAI.Model,
		Timeout: config.GetDuration(cfg.GenAI.Timeout),
	}, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "classification gateway is not configured:", err)
		os.Exit(1)
	}

	manager := service.NewManager(store, log)
	orchestrator := chat.NewOrchestrator(classifier, nil, manager, nil, log)

	fmt.Println("Garage assistant. Type a message, or \"exit\" to leave.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		switch strings.ToLower(message) {
		case "exit", "quit", "sair":
			fmt.Println("Bye.")
			return
		}

		reply := orchestrator.HandleText(context.Background(), message)
		fmt.Println(reply.Message)
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "input error:", err)
		os.Exit(1)
	}
}
