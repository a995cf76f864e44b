// Command issue-token mints an access token signed with the API's JWT secret. It is meant
// for local development and operator access; production tokens come from wallet sign-in.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
	"github.com/noah-isme/yoga-escrow-api/internal/service"
	"github.com/noah-isme/yoga-escrow-api/pkg/config"
)

func main() {
	var (
		wallet string
		handle string
		role   string
		ttl    time.Duration
	)

	flag.StringVar(&wallet, "wallet", "", "Wallet address the token is issued to")
	flag.StringVar(&handle, "handle", "", "Teacher handle, required for the teacher role")
	flag.StringVar(&role, "role", string(models.RoleTeacher), "Role: teacher, student or admin")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime; defaults to JWT_EXPIRATION")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if ttl <= 0 {
		ttl = cfg.JWT.Expiration
	}

	auth := service.NewAuthService(validator.New(), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: ttl,
		Issuer:            cfg.JWT.Issuer,
	})
	token, expiresAt, err := auth.IssueToken(service.TokenRequest{
		Wallet: wallet,
		Handle: handle,
		Role:   models.UserRole(role),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
}
