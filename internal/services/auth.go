package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	userrepo "github.com/yungbote/coursecraft-backend/internal/data/repos/user"
	domainuser "github.com/yungbote/coursecraft-backend/internal/domain/user"
	"github.com/yungbote/coursecraft-backend/internal/modules/authoring"
	"github.com/yungbote/coursecraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// AuthService verifies bearer tokens issued by the identity provider and
// turns them into an authoring identity. Registration and login live there.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueAccessToken(userID uuid.UUID) (string, error)
	GetAccessTTL() time.Duration
}

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type authService struct {
	log          *logger.Logger
	userRepo     userrepo.UserRepo
	jwtSecretKey string
	issuer       string
	accessTTL    time.Duration
}

func NewAuthService(log *logger.Logger, userRepo userrepo.UserRepo, jwtSecretKey, issuer string, accessTTL time.Duration) AuthService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		issuer:       strings.TrimSpace(issuer),
		accessTTL:    accessTTL,
	}
}

func (as *authService) IssueAccessToken(userID uuid.UUID) (string, error) {
	user, err := as.userRepo.GetByID(context.Background(), nil, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("user %s not found", userID)
	}
	now := time.Now()
	claims := JWTClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    as.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken attaches the caller to ctx. The role comes from the
// user record, not the token, so a demoted or blocked user loses access
// before the token expires.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if strings.TrimSpace(tokenString) == "" {
		return ctx, fmt.Errorf("missing token")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if as.issuer != "" {
		opts = append(opts, jwt.WithIssuer(as.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, opts...)
	if err != nil {
		return ctx, fmt.Errorf("Failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("Invalid or expired JWT token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("Invalid user id in token: %w", err)
	}
	user, err := as.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		as.log.Warn("Error fetching user for token", "error", err, "user_id", userID)
		return ctx, fmt.Errorf("Failed to load user: %w", err)
	}
	if user == nil || user.Blocked {
		return ctx, fmt.Errorf("User is not active")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:      user.ID,
		Role:        string(user.Role),
		TokenString: tokenString,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

// IdentityFromContext reads the caller attached by SetContextFromToken. The
// zero identity means an anonymous caller.
func IdentityFromContext(ctx context.Context) authoring.Identity {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return authoring.Identity{}
	}
	role, _ := domainuser.ParseRole(rd.Role)
	return authoring.Identity{UserID: rd.UserID, Role: role}
}
