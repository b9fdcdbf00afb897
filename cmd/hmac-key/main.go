// Package main prints a journal HMAC keyring with a freshly generated key.
package main

import (
	"context"
	"log"
	"os"

	entrypoint "github.com/justly-io/justly-soroban/internal/platform/cmd"
	"github.com/justly-io/justly-soroban/internal/tools/hmackey"
)

func main() {
	log.SetFlags(0)
	entrypoint.Main(entrypoint.ServiceHMACKey, hmackey.ParseConfig, func(_ context.Context, cfg hmackey.Config) error {
		return hmackey.Run(cfg, os.Stdout, nil)
	})
}
