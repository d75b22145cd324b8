package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "COMPONENTGEN_"

func applyEnv(c *Config) {
	setString(&c.Source, "SOURCE")
	setString(&c.Prefix, "PREFIX")

	setString(&c.Docs.Provider, "PROVIDER")
	setString(&c.Docs.Model, "MODEL")
	setString(&c.Docs.BaseURL, "BASE_URL")
	setDuration(&c.Docs.Timeout, "TIMEOUT")
	setInt(&c.Docs.Concurrency, "CONCURRENCY")
	c.Docs.APIKey = firstNonEmpty(env("API_KEY"), c.Docs.APIKey)

	setString(&c.Artifacts.Dir, "ARTIFACT_DIR")
	setBool(&c.Artifacts.S3.Enabled, "S3_ENABLED")
	setString(&c.Artifacts.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.Artifacts.S3.Region, "S3_REGION")
	setString(&c.Artifacts.S3.Bucket, "S3_BUCKET")
	setBool(&c.Artifacts.S3.UseSSL, "S3_USE_SSL")
	c.Artifacts.S3.AccessKey = firstNonEmpty(env("S3_ACCESS_KEY"), os.Getenv("MINIO_ROOT_USER"))
	c.Artifacts.S3.SecretKey = firstNonEmpty(env("S3_SECRET_KEY"), os.Getenv("MINIO_ROOT_PASSWORD"))

	setString(&c.Ledger.Path, "LEDGER_PATH")
	c.Ledger.DSN = env("LEDGER_DSN")

	setString(&c.Serve.Addr, "ADDR")
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

func setString(dst *string, name string) {
	if v := env(name); v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) {
	if n, err := strconv.Atoi(env(name)); err == nil {
		*dst = n
	}
}

func setBool(dst *bool, name string) {
	if b, err := strconv.ParseBool(env(name)); err == nil {
		*dst = b
	}
}

func setDuration(dst *time.Duration, name string) {
	if d, err := time.ParseDuration(env(name)); err == nil {
		*dst = d
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
