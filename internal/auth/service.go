package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/KevinKickass/donp/internal/config"
	"go.uber.org/zap"
)

var ErrInvalidKey = errors.New("auth: invalid operator key")

// Service exchanges the operator key for access tokens and guards the
// routes that change system state.
type Service struct {
	hasher  *KeyHasher
	issuer  *TokenIssuer
	keyHash string
	logger  *zap.Logger
}

func NewService(cfg config.AuthConfig, logger *zap.Logger) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}
	if cfg.OperatorKeyHash == "" {
		return nil, fmt.Errorf("auth.operator_key_hash is required")
	}

	return &Service{
		hasher:  NewKeyHasher(),
		issuer:  NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		keyHash: cfg.OperatorKeyHash,
		logger:  logger,
	}, nil
}

// Login verifies the operator key and returns a signed token.
func (s *Service) Login(key string) (string, time.Time, error) {
	ok, err := s.hasher.VerifyKey(key, s.keyHash)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to verify key: %w", err)
	}
	if !ok {
		s.logger.Warn("Rejected operator key")
		return "", time.Time{}, ErrInvalidKey
	}

	token, expires, err := s.issuer.Issue(RoleOperator)
	if err != nil {
		return "", time.Time{}, err
	}
	s.logger.Info("Operator token issued", zap.Time("expires_at", expires))
	return token, expires, nil
}
