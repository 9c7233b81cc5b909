package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Bae-ChangHyun/DocParse-Arena/internal/app"
	"github.com/Bae-ChangHyun/DocParse-Arena/internal/client"
)

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:3000", "Base URL of the arena gateway")
	doc := flag.String("doc", "", "Path of a document to battle over (default: random sample)")
	flag.Parse()

	if *doc != "" {
		if _, err := os.Stat(*doc); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	m := app.New(client.NewHTTPClient(*baseURL), *doc)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
