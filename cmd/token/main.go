// Command token issues an access token for a user id and role, signed with
// JWT_SECRET.  Accounts live in another service; this is for operators and
// local development against a running server.
//
//	go run ./cmd/token -user 6f1c... -role ADMIN -ttl 1h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-showtime-reservation/internal/config"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
	"github.com/iliyamo/cinema-showtime-reservation/internal/utils"
)

func main() {
	user := flag.String("user", "", "user id (uuid)")
	role := flag.String("role", model.RoleUser, "ADMIN or USER")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if err := run(*user, *role, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
}

func run(user, role string, ttl time.Duration) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	id, err := uuid.Parse(user)
	if err != nil {
		return fmt.Errorf("invalid -user: %w", err)
	}
	if role != model.RoleAdmin && role != model.RoleUser {
		return fmt.Errorf("invalid -role %q", role)
	}
	tok, err := utils.NewAccessToken(secret, id, role, ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok.Token)
	return nil
}
