package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"participa/internal/config"
	"participa/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrCannotSign   = errors.New("no private key configured for signing")
)

// Claims are the bearer token claims issued by the auth subsystem
type Claims struct {
	CitizenID uint        `json:"citizen_id"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service validates ES256 bearer tokens. It can also sign tokens when a
// private key is configured, which only tooling and tests do.
type Service struct {
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
	expiration time.Duration
	issuer     string
}

// NewService builds the service from the JWT config. Secret holds a PEM
// encoded EC private key or public key. An empty secret yields an
// ephemeral key pair, usable only in development.
func NewService(cfg *config.JWTConfig) (*Service, error) {
	if cfg.Secret == "" {
		slog.Warn("No JWT key configured, generating an ephemeral key pair")
		privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
		}
		return newService(privateKey, &privateKey.PublicKey, cfg), nil
	}
	// .env files often carry the PEM on one line with escaped newlines
	return NewServiceFromPEM([]byte(strings.ReplaceAll(cfg.Secret, `\n`, "\n")), cfg)
}

// NewServiceFromPEM builds the service from a PEM block, e.g. one read from
// Vault
func NewServiceFromPEM(data []byte, cfg *config.JWTConfig) (*Service, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("JWT key is not PEM encoded")
	}

	switch block.Type {
	case "EC PRIVATE KEY":
		privateKey, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse EC private key: %w", err)
		}
		return newService(privateKey, &privateKey.PublicKey, cfg), nil
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		publicKey, ok := key.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("public key is %T, want ECDSA", key)
		}
		return newService(nil, publicKey, cfg), nil
	default:
		return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
	}
}

func newService(privateKey *ecdsa.PrivateKey, publicKey *ecdsa.PublicKey, cfg *config.JWTConfig) *Service {
	return &Service{
		privateKey: privateKey,
		publicKey:  publicKey,
		expiration: cfg.Expiration,
		issuer:     cfg.Issuer,
	}
}

// GenerateToken signs a token for a citizen
func (s *Service) GenerateToken(citizenID uint, role models.Role) (string, error) {
	if s.privateKey == nil {
		return "", ErrCannotSign
	}

	now := time.Now()
	claims := Claims{
		CitizenID: citizenID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	tokenString, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a token and returns its claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return s.publicKey, nil
	}, opts...)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.CitizenID == 0 || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing citizen_id or role", ErrInvalidToken)
	}

	return claims, nil
}

// EncodePrivateKey returns the PEM form of the service's private key
func (s *Service) EncodePrivateKey() ([]byte, error) {
	if s.privateKey == nil {
		return nil, ErrCannotSign
	}
	der, err := x509.MarshalECPrivateKey(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
}
