package main

import (
	"flag"
	"fmt"

	"github.com/dbertolani/noise-guard/pkg/config"
	"github.com/dbertolani/noise-guard/pkg/store"
)

func main() {
	chatID := flag.Int64("chat-id", 0, "Telegram chat ID the token will bind to")
	flag.Parse()

	if *chatID == 0 {
		fmt.Println("Error: -chat-id is required")
		flag.Usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		return
	}

	stores, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		return
	}
	defer stores.Close()

	lt, err := stores.LinkTokens.Create(*chatID)
	if err != nil {
		fmt.Printf("Error creating token: %v\n", err)
		return
	}

	fmt.Printf("Token:   %s\n", lt.Token)
	fmt.Printf("Chat ID: %d\n", lt.ChatID)
	fmt.Printf("Send from the node: LINK %s\n", lt.Token)
}
