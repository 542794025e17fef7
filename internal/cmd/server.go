package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/gateway"
)

func setupServer(gw *gateway.Service) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", getEnv("PORT", "8080")),
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
