package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPSenderBuildsMessage(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	s := NewSMTPSender("mailpit", 1025, "")
	s.now = func() time.Time { return time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC) }
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := s.Send(context.Background(), "ana@example.com", "Cita confirmada\r\nBcc: x@evil", "Hola")
	require.NoError(t, err)

	assert.Equal(t, "mailpit:1025", gotAddr)
	assert.Equal(t, []string{"ana@example.com"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, "From: no-reply@booking.local\r\n"))
	assert.Contains(t, gotMsg, "Subject: Cita confirmada  Bcc: x@evil\r\n")
	assert.Contains(t, gotMsg, "Date: Mon, 03 Jun 2024 09:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nHola\r\n"))
}

func TestSMTPSenderErrors(t *testing.T) {
	s := NewSMTPSender("localhost", 25, "bookings@example.com")
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }

	assert.ErrorContains(t, s.Send(context.Background(), "a@example.com", "s", "b"), "refused")
	assert.Error(t, s.Send(context.Background(), " ", "s", "b"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, "a@example.com", "s", "b"), context.Canceled)
}
