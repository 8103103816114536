package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/chefdigital/chef/internal/middleware"
)

// Prints a session token for calling the API with curl:
//
//	SESSION_SECRET=secret go run scripts/generate-jwt.go [session-id]
func main() {
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: SESSION_SECRET environment variable must be set")
		fmt.Fprintln(os.Stderr, "Usage: SESSION_SECRET=secret go run scripts/generate-jwt.go [session-id]")
		os.Exit(1)
	}

	sessionID := uuid.NewString()
	if len(os.Args) > 1 {
		sessionID = os.Args[1]
	}

	tokenString, err := middleware.NewSessions(secret, 24*time.Hour, false).IssueToken(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(tokenString)
}
