package middleware

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/hirosato/homeledger/backend/internal/api/response"
	"github.com/hirosato/homeledger/backend/internal/common/config"
	"github.com/hirosato/homeledger/backend/internal/common/utils"
	"github.com/hirosato/homeledger/backend/internal/domain/auth"
)

// UserContextKey is the key for the user object in the request context
type UserContextKey string

const (
	// UserContextKeyValue is the context key for user object
	UserContextKeyValue UserContextKey = "user"
)

// AuthMiddleware is a middleware for JWT authentication
type AuthMiddleware struct {
	authService auth.Service
	tokenIssuer string
	log         *zap.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(cfg *config.Config, authService auth.Service, log *zap.Logger) AuthMiddleware {
	return AuthMiddleware{
		authService: authService,
		tokenIssuer: utils.GetTokenIssuer(cfg.UserPoolID, cfg.AWSRegion),
		log:         log,
	}
}

// Handle handles the auth middleware
func (m AuthMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		// CORS preflight never carries credentials
		if request.HTTPMethod == "OPTIONS" {
			return next(ctx, logger, request)
		}

		authHeader := request.Headers["Authorization"]
		if authHeader == "" {
			authHeader = request.Headers["authorization"]
		}
		if authHeader == "" {
			return response.AuthenticationError("authorization header is required", request.RequestContext.RequestID), nil
		}

		token, err := utils.ExtractBearerToken(authHeader)
		if err != nil {
			return response.AuthenticationError(err.Error(), request.RequestContext.RequestID), nil
		}

		user, err := m.authService.ValidateToken(ctx, token)
		if err != nil {
			// Peek the unverified claims so the log says which issuer and
			// subject the rejected token carried.
			fields := []zap.Field{zap.Error(err)}
			if claims, peekErr := utils.PeekClaims(token); peekErr == nil {
				issuer, _ := claims.GetIssuer()
				fields = append(fields,
					zap.String("tokenIssuer", issuer),
					zap.String("tokenUse", claims.TokenUse),
					zap.Bool("issuerMismatch", issuer != m.tokenIssuer),
				)
			}
			m.log.Warn("Token validation failed", fields...)
			return response.AuthenticationError("invalid or expired token", request.RequestContext.RequestID), nil
		}

		ctx = context.WithValue(ctx, UserContextKeyValue, user)

		return next(ctx, logger, request)
	}
}

// GetUser gets the user from the request context
func GetUser(ctx context.Context) (auth.User, bool) {
	user, ok := ctx.Value(UserContextKeyValue).(auth.User)
	return user, ok
}

// GetUserID gets the user ID from the request context
func GetUserID(ctx context.Context) string {
	user, ok := ctx.Value(UserContextKeyValue).(auth.User)
	if !ok {
		return ""
	}
	return user.ID
}
