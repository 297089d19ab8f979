// Package main issues a bearer token for local development.
// Usage: JWT_SECRET=... opensox-devtoken --user USER_ID [--ttl 1h]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"opensox-api/internal/handler/http/auth"
)

func main() {
	var (
		userID string
		ttl    time.Duration
	)
	flag.StringVar(&userID, "user", "", "User ID to put in the sub claim")
	flag.DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	flag.Parse()

	if userID == "" {
		fmt.Fprintln(os.Stderr, "Usage: JWT_SECRET=... opensox-devtoken --user USER_ID [--ttl 1h]")
		os.Exit(2)
	}

	secret := os.Getenv("JWT_SECRET")
	if err := auth.ValidateSecret(secret); err != nil {
		fmt.Fprintf(os.Stderr, "Error: JWT_SECRET: %v\n", err)
		os.Exit(2)
	}

	token, err := auth.Sign(secret, userID, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
