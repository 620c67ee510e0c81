package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"participa/internal/auth"
	"participa/internal/config"
	"participa/internal/models"
	"participa/internal/vault"
)

func main() {
	out := flag.String("out", "jwt-private-key.pem", "file to write the PEM key to")
	citizenID := flag.Uint("citizen", 0, "also mint a development token for this citizen id")
	role := flag.String("role", string(models.RoleCitizen), "role of the development token")
	toVault := flag.Bool("vault", false, "store the key in Vault (uses VAULT_ADDR, VAULT_TOKEN, VAULT_KV_MOUNT, VAULT_JWT_KEY_PATH)")
	flag.Parse()

	// An empty secret makes the auth service generate a fresh P-256 key pair
	jwtCfg := &config.JWTConfig{Expiration: 24 * time.Hour}
	authService, err := auth.NewService(jwtCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
		os.Exit(1)
	}

	privateKeyPEM, err := authService.EncodePrivateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode private key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Generated ECDSA P-256 key pair for JWT signing.")
	fmt.Println("\nAdd this to your .env file as JWT_SECRET (as a single line with \\n for newlines):")
	fmt.Println("----------------------------------------")
	fmt.Printf("JWT_SECRET=%s\n", strings.ReplaceAll(string(privateKeyPEM), "\n", `\n`))

	if err := os.WriteFile(*out, privateKeyPEM, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write private key file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n✓ Private key saved to: %s\n", *out)

	if *toVault {
		if err := storeInVault(privateKeyPEM); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to store key in Vault: %v\n", err)
			os.Exit(1)
		}
	}

	if *citizenID > 0 {
		r, err := models.ParseRole(*role)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid role: %v\n", err)
			os.Exit(1)
		}
		token, err := authService.GenerateToken(*citizenID, r)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nDevelopment token for citizen %d (%s), valid for %s:\n", *citizenID, r, jwtCfg.Expiration)
		fmt.Println(token)
	}
}

func storeInVault(privateKeyPEM []byte) error {
	cfg := config.VaultConfig{
		Address:   envOr("VAULT_ADDR", "http://localhost:8200"),
		Token:     os.Getenv("VAULT_TOKEN"),
		KVMount:   envOr("VAULT_KV_MOUNT", "secret"),
		JWTKeyRef: envOr("VAULT_JWT_KEY_PATH", "participa/jwt"),
	}
	if cfg.Token == "" {
		return fmt.Errorf("VAULT_TOKEN is not set")
	}

	client, err := vault.NewClient(&vault.Config{
		Address: cfg.Address,
		Token:   cfg.Token,
		KVMount: cfg.KVMount,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		return err
	}
	if err := client.StoreSecret(ctx, cfg.JWTKeyRef, map[string]any{"private_key": string(privateKeyPEM)}); err != nil {
		return err
	}
	fmt.Printf("✓ Private key stored in Vault at %s/%s\n", cfg.KVMount, cfg.JWTKeyRef)
	fmt.Println("Set VAULT_ENABLED=true and leave JWT_SECRET empty to use it.")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
