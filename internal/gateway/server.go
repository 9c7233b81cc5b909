package gateway

import (
	"fmt"
	"log"
	"net/http"

	"github.com/rs/cors"
)

// NewHandler wires the proxy, the metrics endpoint and the gateway's own
// CORS layer into one HTTP handler. corsOrigins empty allows any origin.
func NewHandler(p *Proxy, corsOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	mux.Handle("/", p)

	c := cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(mux)
}

// ListenAndServe runs the gateway until the server stops.
func ListenAndServe(host string, port int, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Gateway listening on %s", addr)
	return http.ListenAndServe(addr, handler)
}
