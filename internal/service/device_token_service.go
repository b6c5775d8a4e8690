package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
)

// DeviceTokens signs and checks the X-Device-Token identity. The token only
// names a device; it grants nothing on the backend.
type DeviceTokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewDeviceTokens constructs the signer.
func NewDeviceTokens(secret string, ttl time.Duration, issuer string) (*DeviceTokens, error) {
	if secret == "" {
		return nil, errors.New("device token secret is required")
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &DeviceTokens{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}, nil
}

// Issue mints a token for a fresh device id.
func (d *DeviceTokens) Issue() (token, deviceID string, err error) {
	deviceID = uuid.NewString()
	token, err = d.Sign(deviceID)
	return token, deviceID, err
}

// Sign mints a token for an existing device id.
func (d *DeviceTokens) Sign(deviceID string) (string, error) {
	now := d.now()
	claims := jwt.RegisteredClaims{
		Subject:   deviceID,
		Issuer:    d.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d.ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.secret)
	if err != nil {
		return "", fmt.Errorf("sign device token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its device id.
func (d *DeviceTokens) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(d.now),
	}
	if d.issuer != "" {
		opts = append(opts, jwt.WithIssuer(d.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return d.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid device token")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid device id")
	}
	return claims.Subject, nil
}
