package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "/api/v1", cfg.APIPrefix)
	require.Equal(t, float64(-3), cfg.Scoring.DefaultPenalty)
	require.False(t, cfg.Scoring.StrictSelections)
	require.False(t, cfg.Scoring.RejectDuplicateQuestions)
	require.Equal(t, 2*time.Hour, cfg.Results.TTL)
	require.Equal(t, 3*time.Second, cfg.Results.StoreTimeout)
	require.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	require.Equal(t, 20, cfg.Uploads.MaxFiles)
	require.Equal(t, "เลขประจำตัว", cfg.Columns.StudentID)
	require.Equal(t, "ข้อ", cfg.Columns.QuestionNumber)
	require.False(t, cfg.Redis.Enabled)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SCORING_DEFAULT_PENALTY", -1.5)
	v.Set("SCORING_STRICT_SELECTIONS", true)
	v.Set("RESULTS_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	cfg := fromViper(v)

	require.Equal(t, -1.5, cfg.Scoring.DefaultPenalty)
	require.True(t, cfg.Scoring.StrictSelections)
	require.Equal(t, 2*time.Hour, cfg.Results.TTL)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
