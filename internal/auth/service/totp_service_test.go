package service

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTPService(t *testing.T) {
	svc := NewTOTPService("Secure File Sharing App")

	enrollment, err := svc.Enroll("alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.Secret)
	assert.Contains(t, enrollment.ProvisioningURI, "otpauth://totp/")
	assert.Contains(t, enrollment.ProvisioningURI, "alice@example.com")
	assert.True(t, strings.HasPrefix(enrollment.QRCode, "data:image/png;base64,"))

	code, err := totp.GenerateCode(enrollment.Secret, time.Now().UTC())
	require.NoError(t, err)

	assert.True(t, svc.Validate(code, enrollment.Secret))
	other, err := svc.Enroll("bob@example.com")
	require.NoError(t, err)
	otherCode, err := totp.GenerateCode(other.Secret, time.Now().UTC())
	require.NoError(t, err)
	if otherCode != code {
		assert.False(t, svc.Validate(otherCode, enrollment.Secret))
	}
	assert.False(t, svc.Validate("not-a-code", enrollment.Secret))
}
