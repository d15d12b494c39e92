package api

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// CallerIDKey is the fiber.Ctx local holding the authenticated caller.
const CallerIDKey = "caller_id"

type CustomClaims struct {
	Scope string `json:"scope"`
}

func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// EnsureValidToken authenticates the caller. With KBUS_AUTH_DOMAIN set it
// validates an Auth0 JWT and uses the token subject as the caller; without it
// the X-Caller-Id header is trusted, which only makes sense behind a gateway
// that sets it.
func EnsureValidToken() fiber.Handler {
	authDomain := os.Getenv("KBUS_AUTH_DOMAIN")

	if authDomain == "" {
		log.Warn().Msg("KBUS_AUTH_DOMAIN not set, trusting X-Caller-Id header")

		return func(c *fiber.Ctx) error {
			callerID := c.Get("X-Caller-Id")
			if callerID == "" {
				c.SendStatus(fiber.StatusUnauthorized)
				return c.JSON(fiber.Map{
					"error": "X-Caller-Id header is required",
				})
			}

			c.Locals(CallerIDKey, callerID)

			return c.Next()
		}
	}

	issuerURL, err := url.Parse("https://" + authDomain + "/")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse the issuer url")
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{os.Getenv("KBUS_AUTH_AUDIENCE")},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up the jwt validator")
	}

	return func(c *fiber.Ctx) (err error) {
		authHeader := c.Get("Authorization")

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.SendStatus(fiber.StatusUnauthorized)
			return c.JSON(fiber.Map{
				"error": "Authorization header is required",
			})
		}

		jwtToken := strings.TrimPrefix(authHeader, "Bearer ")
		claimsI, jwtErr := jwtValidator.ValidateToken(context.Background(), jwtToken)

		if jwtErr != nil {
			c.SendStatus(fiber.StatusUnauthorized)
			return c.JSON(fiber.Map{
				"error": "Invalid auth token",
			})
		}

		claims := claimsI.(*validator.ValidatedClaims)
		c.Locals(CallerIDKey, claims.RegisteredClaims.Subject)

		return c.Next()
	}
}
