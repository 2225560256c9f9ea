package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/sentiscan/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		_ = os.Setenv("SENTISCAN_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DataDir, convey.ShouldEqual, "data")
				convey.So(cfg.FetchConcurrency, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SENTISCAN_ADDR", ":8080")
			_ = os.Setenv("SENTISCAN_STORAGE_BACKEND", "sqlite")
			_ = os.Setenv("SENTISCAN_REVIEW_COUNT", "50")
			_ = os.Setenv("SENTISCAN_LLM_PROVIDER", "anthropic")
			_ = os.Setenv("SENTISCAN_LLM_TEMPERATURE", "0.2")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StorageBackend, convey.ShouldEqual, "sqlite")
				convey.So(cfg.ReviewCount, convey.ShouldEqual, 50)
				convey.So(cfg.LLMProvider, convey.ShouldEqual, "anthropic")
				convey.So(cfg.LLMTemperature, convey.ShouldEqual, 0.2)
			})
		})

		convey.Convey("When loading range and metrics settings from env", func() {
			_ = os.Setenv("SENTISCAN_MAX_RANGE_DAYS", "31")
			_ = os.Setenv("SENTISCAN_METRICS_ENABLED", "false")
			_ = os.Setenv("SENTISCAN_METRICS_REFRESH_MS", "2500")
			_ = os.Setenv("SENTISCAN_SUMMARY_TIMEOUT_MS", "45000")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the typed values are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MaxRangeDays, convey.ShouldEqual, 31)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 2500*time.Millisecond)
				convey.So(cfg.SummaryTimeout(), convey.ShouldEqual, 45*time.Second)
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			yamlContent := `
addr: ":9090"
data_dir: /var/lib/sentiscan
fetch_concurrency: 8
apps:
  Example: com.example.app
`
			_ = os.Setenv("SENTISCAN_CONFIG", writeConfigFile(t, yamlContent))
			_ = os.Setenv("SENTISCAN_FETCH_CONCURRENCY", "2")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/var/lib/sentiscan")
				convey.So(cfg.FetchConcurrency, convey.ShouldEqual, 2)
				convey.So(cfg.Apps["Example"], convey.ShouldEqual, "com.example.app")
				convey.So(cfg.ReviewCount, convey.ShouldEqual, 200)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("SENTISCAN_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SENTISCAN_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SENTISCAN_REVIEW_COUNT", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given values that break validation", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		_ = os.Setenv("SENTISCAN_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
		defer clearConfigEnvVars()

		cases := []struct{ key, val string }{
			{"SENTISCAN_ADDR", ""},
			{"SENTISCAN_STORAGE_BACKEND", "redis"},
			{"SENTISCAN_LLM_PROVIDER", "cohere"},
			{"SENTISCAN_REVIEW_COUNT", "501"},
			{"SENTISCAN_FETCH_CONCURRENCY", "0"},
			{"SENTISCAN_LOG_FORMAT", "xml"},
			{"SENTISCAN_MAX_RANGE_DAYS", "0"},
			{"SENTISCAN_MAX_RANGE_DAYS", "4000"},
			{"SENTISCAN_METRICS_REFRESH_MS", "10"},
			{"SENTISCAN_SUMMARY_TIMEOUT_MS", "-1"},
		}
		for _, tc := range cases {
			convey.Convey("When "+tc.key+" is "+tc.val, func() {
				_ = os.Setenv(tc.key, tc.val)

				cfg, err := config.Load(ctx)

				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		}
	})
}

func TestConfigAPIKeyFallback(t *testing.T) {
	convey.Convey("Given provider keys in the environment", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When only OPENAI_API_KEY is set", func() {
			_ = os.Setenv("SENTISCAN_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
			_ = os.Setenv("OPENAI_API_KEY", "sk-openai")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.LLMAPIKey, convey.ShouldEqual, "sk-openai")
		})

		convey.Convey("When the provider is anthropic", func() {
			_ = os.Setenv("SENTISCAN_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
			_ = os.Setenv("SENTISCAN_LLM_PROVIDER", "anthropic")
			_ = os.Setenv("ANTHROPIC_API_KEY", "sk-ant")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.LLMAPIKey, convey.ShouldEqual, "sk-ant")
		})

		convey.Convey("When an explicit key is set", func() {
			_ = os.Setenv("SENTISCAN_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
			_ = os.Setenv("OPENAI_API_KEY", "sk-openai")
			_ = os.Setenv("SENTISCAN_LLM_API_KEY", "sk-explicit")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.LLMAPIKey, convey.ShouldEqual, "sk-explicit")
		})

		convey.Convey("When the key comes from a .env file", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, ".env")
			convey.So(os.WriteFile(path, []byte("OPENAI_API_KEY=sk-dotenv\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("SENTISCAN_ENV_FILE", path)

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.LLMAPIKey, convey.ShouldEqual, "sk-dotenv")
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"SENTISCAN_CONFIG",
		"SENTISCAN_ENV_FILE",
		"SENTISCAN_ADDR",
		"SENTISCAN_DATA_DIR",
		"SENTISCAN_STORAGE_BACKEND",
		"SENTISCAN_REVIEW_COUNT",
		"SENTISCAN_FETCH_CONCURRENCY",
		"SENTISCAN_LOG_FORMAT",
		"SENTISCAN_LLM_PROVIDER",
		"SENTISCAN_LLM_API_KEY",
		"SENTISCAN_LLM_TEMPERATURE",
		"SENTISCAN_MAX_RANGE_DAYS",
		"SENTISCAN_METRICS_ENABLED",
		"SENTISCAN_METRICS_REFRESH_MS",
		"SENTISCAN_SUMMARY_TIMEOUT_MS",
		"OPENAI_API_KEY",
		"ANTHROPIC_API_KEY",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "sentiscan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
