// Package main provides a CLI tool for generating issuer tokens for local and
// demo environments. These tokens use the dev signing key and will NOT work
// against a production deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultTTL  = time.Hour
	defaultRole = "issuer"
)

type tokenOutput struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	Subject   string `json:"subject"`
	ExpiresIn string `json:"expires_in"`
	Usage     string `json:"usage"`
}

func main() {
	subject := flag.String("subject", "local-operator", "Subject claim identifying the operator")
	role := flag.String("role", defaultRole, "Role claim (admin routes require 'issuer')")
	ttl := flag.Duration("ttl", defaultTTL, "Token time-to-live")
	key := flag.String("key", "", "Signing key; defaults to the dev key from config")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	signingKey := *key
	if signingKey == "" {
		signingKey = devSigningKey
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  *subject,
		"role": *role,
		"iat":  now.Unix(),
		"exp":  now.Add(*ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(signingKey))
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to sign token:", err)
		os.Exit(1)
	}

	if *asJSON {
		out := tokenOutput{
			Token:     signed,
			Role:      *role,
			Subject:   *subject,
			ExpiresIn: ttl.String(),
			Usage:     "Authorization: Bearer <token>",
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	fmt.Println(signed)
}
