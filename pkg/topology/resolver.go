package topology

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kbus/kbus/pkg/fleetdf"
)

var otpPattern = regexp.MustCompile(`^[A-Z0-9]{5}$`)

// NormalizeOTP uppercases and trims a one-time code, returning the empty
// string when the result is not 5 alphanumerics.
func NormalizeOTP(value string) string {
	otp := strings.ToUpper(strings.TrimSpace(value))

	if !otpPattern.MatchString(otp) {
		return ""
	}

	return otp
}

// Resolve maps a one-time code to the vehicle currently bound to it.
// The binding itself is owned by the registry and never mutated here.
func (c *Cache) Resolve(ctx context.Context, otp string) (*fleetdf.Vehicle, error) {
	normalized := NormalizeOTP(otp)
	if normalized == "" {
		return nil, fmt.Errorf("%w: malformed otp", fleetdf.ErrNotFound)
	}

	return c.registry.VehicleByOTP(ctx, normalized)
}

// IsValid reports whether a code is currently bound to a vehicle. Side effect
// free.
func (c *Cache) IsValid(ctx context.Context, otp string) (bool, error) {
	_, err := c.Resolve(ctx, otp)
	if errors.Is(err, fleetdf.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
