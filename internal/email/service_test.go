package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/novelverse/internal/logging"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("smtp.example.com", "587", "mailer", "secret", "noreply@example.com", "NovelVerse")
	require.NoError(t, err)
	return svc
}

func testContext() context.Context {
	return logging.WithContext(context.Background(), logging.NewNopLogger())
}

func TestSendVerificationCode(t *testing.T) {
	svc := newTestService(t)

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	svc.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, string(msg)
		return nil
	}

	err := svc.SendVerificationCode(testContext(), "reader@example.com", "042519", 10*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"reader@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: NovelVerse - Verification code\r\n")
	assert.Contains(t, gotMsg, "multipart/alternative")
	assert.Contains(t, gotMsg, "Your NovelVerse verification code: 042519")
	assert.Contains(t, gotMsg, "valid for 10 minutes")
	assert.Contains(t, gotMsg, `<p class="code">042519</p>`)
}

func TestSendVerificationCode_NoAuthWithoutUser(t *testing.T) {
	svc, err := NewService("localhost", "1025", "", "", "noreply@example.com", "NovelVerse")
	require.NoError(t, err)

	var gotAuth smtp.Auth
	svc.send = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		gotAuth = a
		return nil
	}

	require.NoError(t, svc.SendVerificationCode(testContext(), "reader@example.com", "123456", 10*time.Minute))
	assert.Nil(t, gotAuth)
}

func TestSendVerificationCode_SMTPFailure(t *testing.T) {
	svc := newTestService(t)
	smtpErr := errors.New("connection refused")
	svc.send = func(string, smtp.Auth, string, []string, []byte) error {
		return smtpErr
	}

	err := svc.SendVerificationCode(testContext(), "reader@example.com", "123456", 10*time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, smtpErr)
}
