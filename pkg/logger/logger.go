package logger

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Boatkungg/teerute-tpat13-checker/pkg/config"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/middleware/requestid"
)

const serviceName = "tpat13-checker"

// New builds the process logger. Production emits sampled JSON at info,
// everything else emits unsampled output at debug unless LOG_LEVEL says otherwise.
func New(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.DebugLevel
	if cfg.Env == config.EnvProduction {
		level = zapcore.InfoLevel
	}
	if raw := strings.TrimSpace(cfg.Log.Level); raw != "" {
		parsed, err := zapcore.ParseLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", raw, err)
		}
		level = parsed
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "timestamp"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Env != config.EnvProduction,
		Encoding:         "json",
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Log.Format == "console" {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if cfg.Env == config.EnvProduction {
		zapCfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}

	return zapCfg.Build(zap.Fields(zap.String("service", serviceName)))
}

// GinMiddleware writes one access line per request. Server errors log at error,
// client errors at warn. Probe and scrape paths drop to debug.
func GinMiddleware(l *zap.Logger, quiet ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if n := c.Request.ContentLength; n > 0 {
			fields = append(fields, zap.Int64("bytes_in", n))
		}
		if n := c.Writer.Size(); n > 0 {
			fields = append(fields, zap.Int("bytes_out", n))
		}
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, zap.Strings("errors", errs.Errors()))
		}

		_, isQuiet := skip[c.Request.URL.Path]
		switch {
		case status >= http.StatusInternalServerError:
			l.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			l.Warn("http_request", fields...)
		case isQuiet:
			l.Debug("http_request", fields...)
		default:
			l.Info("http_request", fields...)
		}
	}
}
