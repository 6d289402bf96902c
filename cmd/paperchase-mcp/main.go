package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/paperchase/internal/config"
	"github.com/peterkuimelis/paperchase/internal/game"
	pcmcp "github.com/peterkuimelis/paperchase/internal/mcp"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		fail(err)
	}
	configPath := flag.String("config", settings.ConfigPath, "path to the rules YAML file")
	contentPath := flag.String("content", settings.ContentPath, "path to the content YAML file")
	flag.Parse()

	rules, err := game.LoadConfig(*configPath)
	if err != nil {
		fail(err)
	}
	content, err := game.LoadContent(*contentPath)
	if err != nil {
		fail(err)
	}
	pcmcp.SetContent(rules, content)

	s := server.NewMCPServer("paperchase", "1.0.0")
	pcmcp.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
