package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mimino/internal/infra"
	"mimino/internal/providers/genai"
)

// keycheck verifies that the configured Gemini API key is accepted by the
// remote service before the server is started with it.
func main() {
	var keyFlag string
	flag.StringVar(&keyFlag, "key", "", "API key to verify (falls back to GEMINI_API_KEY)")
	flag.Parse()

	_ = godotenv.Load()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if key == "" {
		fmt.Fprintln(os.Stderr, "an API key is required via -key or GEMINI_API_KEY")
		os.Exit(1)
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "keycheck").Logger()

	client, err := genai.NewClient(genai.Options{
		APIKey:  key,
		BaseURL: os.Getenv("GEMINI_BASE_URL"),
		Logger:  &logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure client: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "key rejected: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("API key verified")
}
