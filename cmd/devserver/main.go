// Command devserver runs the API over in-memory collections. Nothing is
// persisted; intended for local frontend work and demos.
package main

import (
	"os"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog/service"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/server"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/tokens"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	secret := os.Getenv("ACCESS_TOKEN_SECRET")
	if secret == "" {
		secret = "dev-secret"
		logger.Warnf("ACCESS_TOKEN_SECRET not set; using an insecure development secret")
	}

	r := server.NewRouter(server.Deps{
		Catalog: service.NewMemory(),
		Issuer:  tokens.NewIssuer(secret, 0),
	})

	logger.Infof("devserver listening on :%s (in-memory store)", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
