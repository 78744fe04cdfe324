// devtoken выпускает HS256 токен для локальной разработки (auth.mode: hmac).
//
//	go run ./cmd/devtoken -email admin@trust.local -admin
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"trust_backend/internal/auth"
	"trust_backend/internal/config"
)

func main() {
	uid := flag.String("uid", "dev-admin", "subject (uid) claim")
	email := flag.String("email", "admin@trust.local", "email claim")
	admin := flag.Bool("admin", false, "set the admin claim")
	unverified := flag.Bool("unverified", false, "mark the email as not verified")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.Auth.Mode != "hmac" {
		fmt.Fprintf(os.Stderr, "auth.mode is %q, dev tokens only work with hmac\n", cfg.Auth.Mode)
		os.Exit(1)
	}

	token, err := auth.GenerateToken(cfg.Auth.JWTSecret, auth.TokenParams{
		UID:           *uid,
		Email:         *email,
		EmailVerified: !*unverified,
		Admin:         *admin,
		Issuer:        cfg.Auth.Issuer,
		Audience:      cfg.Auth.Audience,
		TTL:           *ttl,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
