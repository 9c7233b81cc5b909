package main

import (
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Bae-ChangHyun/DocParse-Arena/internal/config"
	"github.com/Bae-ChangHyun/DocParse-Arena/internal/gateway"
	"github.com/Bae-ChangHyun/DocParse-Arena/internal/mock"
)

func main() {
	mockMode := flag.Bool("mock", false, "Run against a built-in mock OCR backend")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if os.IsNotExist(err) {
		// No config file is fine; everything has a default.
		cfg = config.Default()
	} else if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	if *mockMode {
		log.Println("Starting in mock mode")
		cfg.Backend.URL = startMockBackend()
	}

	proxy, err := gateway.NewProxy(cfg.Backend.URL, cfg.Gateway.AllowedPrefixes)
	if err != nil {
		log.Fatalf("Failed to create proxy: %v", err)
	}
	log.Printf("Proxying to backend at %s", cfg.Backend.URL)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		os.Exit(0)
	}()

	handler := gateway.NewHandler(proxy, cfg.Gateway.CORSOrigins)
	if err := gateway.ListenAndServe(cfg.Server.Host, cfg.Server.Port, handler); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// startMockBackend serves the mock OCR backend on a loopback port and
// returns its base URL.
func startMockBackend() string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("Failed to start mock backend: %v", err)
	}

	mux := http.NewServeMux()
	mock.NewBackend().Routes(mux)
	go func() {
		if err := http.Serve(ln, mux); err != nil {
			log.Fatalf("Mock backend error: %v", err)
		}
	}()

	return "http://" + ln.Addr().String()
}
