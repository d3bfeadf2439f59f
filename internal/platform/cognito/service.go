package cognito

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/lestrrat-go/jwx/jwt"

	"github.com/hirosato/homeledger/backend/internal/common/config"
	"github.com/hirosato/homeledger/backend/internal/common/utils"
	"github.com/hirosato/homeledger/backend/internal/domain/auth"
	"github.com/hirosato/homeledger/backend/internal/domain/errors"
)

// Service implements the auth.Service interface using AWS Cognito
type Service struct {
	cognitoClient *cognitoidentityprovider.Client
	userPoolID    string
	clientID      string
	jwksURL       string
	jwkSet        jwk.Set
	log           *slog.Logger
	region        string
}

// NewService creates a new Cognito auth service
func NewService(client *cognitoidentityprovider.Client, cfg *config.Config, log *slog.Logger) *Service {
	jwksURL := utils.BuildJWKSURL(cfg.UserPoolID, cfg.AWSRegion)

	service := &Service{
		cognitoClient: client,
		userPoolID:    cfg.UserPoolID,
		clientID:      cfg.UserPoolClientID,
		jwksURL:       jwksURL,
		log:           log,
		region:        cfg.AWSRegion,
	}

	// Fetch JWK set (don't fail if this fails, we'll retry on first validation)
	jwkSet, err := jwk.Fetch(context.Background(), jwksURL)
	if err == nil {
		service.jwkSet = jwkSet
	} else {
		service.log.Warn("Failed to fetch JWK set, will retry on first token validation", "error", err)
	}

	return service
}

// RefreshJWKSet refreshes the JWK set used for token validation
func (s *Service) RefreshJWKSet(ctx context.Context) error {
	jwkSet, err := jwk.Fetch(ctx, s.jwksURL)
	if err != nil {
		return fmt.Errorf("failed to refresh JWK set: %w", err)
	}
	s.jwkSet = jwkSet
	return nil
}

// ValidateToken validates a JWT token against the user pool's JWKS
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (auth.User, error) {
	token, err := s.parse(tokenString)
	if err != nil {
		// If token validation fails, try refreshing the JWK set once
		if refreshErr := s.RefreshJWKSet(ctx); refreshErr == nil {
			token, err = s.parse(tokenString)
		}
		if err != nil {
			return auth.User{}, errors.NewAuthenticationError("unauthorized: invalid token")
		}
	}

	userID, _ := token.Get("sub")
	email, _ := token.Get("email")
	name, _ := token.Get("name")
	householdID, _ := token.Get("custom:householdId")

	var scopes []string
	if scopesClaim, ok := token.Get("scope"); ok {
		if scopesStr, ok := scopesClaim.(string); ok {
			scopes = splitScopes(scopesStr)
		}
	}

	return auth.User{
		ID:                 stringOrDefault(userID, ""),
		Email:              stringOrDefault(email, ""),
		Name:               stringOrDefault(name, ""),
		Scopes:             scopes,
		DefaultHouseholdID: stringOrDefault(householdID, ""),
		TokenMetadata: auth.TokenMetadata{
			IssuedAt:  token.IssuedAt(),
			ExpiresAt: token.Expiration(),
		},
	}, nil
}

func (s *Service) parse(tokenString string) (jwt.Token, error) {
	return jwt.Parse(
		[]byte(tokenString),
		jwt.WithKeySet(s.jwkSet),
		jwt.WithValidate(true),
		jwt.WithIssuer(utils.GetTokenIssuer(s.userPoolID, s.region)),
	)
}

// GetUser fetches the caller's profile from Cognito
func (s *Service) GetUser(ctx context.Context, accessToken string) (auth.User, error) {
	result, err := s.cognitoClient.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return auth.User{}, errors.NewAuthenticationError("failed to fetch user")
	}

	user := auth.User{
		TokenMetadata: auth.TokenMetadata{IssuedAt: time.Now().UTC()},
	}
	for _, attr := range result.UserAttributes {
		if attr.Name == nil || attr.Value == nil {
			continue
		}
		switch *attr.Name {
		case "sub":
			user.ID = *attr.Value
		case "email":
			user.Email = *attr.Value
		case "given_name":
			user.FirstName = *attr.Value
		case "family_name":
			user.LastName = *attr.Value
		case "custom:householdId":
			user.DefaultHouseholdID = *attr.Value
		}
	}
	return user, nil
}

func splitScopes(s string) []string {
	return strings.Fields(s)
}

func stringOrDefault(v interface{}, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}
