package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "America/Bogota", cfg.Booking.Timezone)
	assert.Equal(t, 15*time.Minute, cfg.Booking.SlotStep)
	assert.Equal(t, 30*time.Second, cfg.Booking.SlotCacheTTL)
	assert.Equal(t, time.Hour, cfg.Reminders.Interval)
	assert.Empty(t, cfg.Events.Brokers)

	loc, err := cfg.Booking.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Bogota", loc.String())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOOKING_TIMEZONE", "UTC")
	t.Setenv("BOOKING_SLOT_STEP", "10m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("OTEL_SAMPLING_RATIO", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.Booking.Timezone)
	assert.Equal(t, 10*time.Minute, cfg.Booking.SlotStep)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.Brokers)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
}

func TestBookingLocationRejectsUnknownZone(t *testing.T) {
	_, err := BookingConfig{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("-5s", time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}
