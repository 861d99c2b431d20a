package service

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	apperrors "github.com/allisson/filevault/internal/errors"
)

type totpService struct {
	issuer string
	now    func() time.Time
}

// NewTOTPService creates a TOTPService using RFC 6238 defaults: SHA-1, six digits,
// thirty-second period and one step of clock skew.
func NewTOTPService(issuer string) TOTPService {
	return &totpService{
		issuer: issuer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Enroll generates a new base32 secret and its otpauth provisioning URI.
func (s *totpService) Enroll(accountName string) (*authDomain.Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate totp secret")
	}
	qrCode, err := qrCodeDataURI(key)
	if err != nil {
		return nil, err
	}
	return &authDomain.Enrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCode:          qrCode,
	}, nil
}

// qrCodeDataURI renders the provisioning URI as a PNG data URI for authenticator apps.
func qrCodeDataURI(key *otp.Key) (string, error) {
	img, err := key.Image(200, 200)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to render totp qr code")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", apperrors.Wrap(err, "failed to encode totp qr code")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Validate reports whether code is valid for secret at the current time.
func (s *totpService) Validate(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, s.now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
