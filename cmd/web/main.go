package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/peterkuimelis/paperchase/internal/config"
	"github.com/peterkuimelis/paperchase/internal/game"
	"github.com/peterkuimelis/paperchase/internal/web"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	port := flag.Int("port", settings.WebPort, "HTTP port to listen on")
	configPath := flag.String("config", settings.ConfigPath, "path to the rules YAML file")
	contentPath := flag.String("content", settings.ContentPath, "path to the content YAML file")
	flag.Parse()

	rules, err := game.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	content, err := game.LoadContent(*contentPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if content.Warnings != nil {
		log.Printf("Warning: content problems:\n%v", content.Warnings)
	}

	srv := web.NewServer(rules, content)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("paperchase spectator listening on http://localhost:%d", *port)
	if err := srv.ListenAndServe(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
