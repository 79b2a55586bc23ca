package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/blog")
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("REFRESH_SECRET", "refresh-secret")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("REFRESH_TOKEN_TTL", "1d")
}

func TestLoad_ReadsRequiredSettings(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("FE_DEV_URL", "http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, []byte("access-secret"), cfg.JWTSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.BlogCacheTTL)
	assert.False(t, cfg.GoogleEnabled())
	assert.False(t, cfg.MinioEnabled())
}

func TestLoad_MissingTTLsAreRejected(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("REFRESH_TOKEN_TTL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_TTL must be positive")
	assert.Contains(t, err.Error(), "REFRESH_TOKEN_TTL must be positive")
}

func TestValidate_SigningKeysMustDiffer(t *testing.T) {
	cfg := &Config{
		DatabaseURL:     "dsn",
		JWTSecret:       []byte("same"),
		RefreshSecret:   []byte("same"),
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestValidate_ReportsEveryMissingSecret(t *testing.T) {
	err := (&Config{}).Validate()
	require.Error(t, err)
	for _, name := range []string{"DATABASE_URL", "JWT_SECRET", "REFRESH_SECRET"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "15m", want: 15 * time.Minute},
		{in: "1d", want: 24 * time.Hour},
		{in: " 2d ", want: 48 * time.Hour},
		{in: "", want: 0},
		{in: "xd", wantErr: true},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTL(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
