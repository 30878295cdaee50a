package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/comunidad/residence-service/internal/utils"
)

const (
	LDConnectionTimeout = 5 * time.Second

	EnvDevelopment = "development"
)

type Config struct {
	AppName                  string `env:"APP_NAME" envDefault:"residence-service"`
	AppPort                  string `env:"APP_PORT" envDefault:"8080"`
	Env                      string `env:"ENV,required"`
	LogLevel                 string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat                string `env:"LOG_FORMAT" envDefault:"text"`
	DBUrl                    string `env:"DB_URL,required"`
	RSAPublicKeyBase64       string `env:"RSA_PUBLIC_KEY_BASE64,required"`
	LDSDKKey                 string `env:"LD_SDK_KEY"`
	LDServerContextKey       string `env:"LD_SERVER_CONTEXT_KEY" envDefault:"residence-service"`
	LDServerContextKind      string `env:"LD_SERVER_CONTEXT_KIND" envDefault:"service"`
	ConsistencyAuditSchedule string `env:"CONSISTENCY_AUDIT_SCHEDULE" envDefault:"0 */6 * * *"`
	AppUrl                   string `env:"APP_URL" envDefault:"http://localhost:8080"`

	// Flag fallbacks, used as the LaunchDarkly defaults and as the final
	// values when no SDK key is configured.
	LDFlag_SeedDbWithDemoData       bool `env:"SEED_DB_WITH_DEMO_DATA" envDefault:"false"`
	LDFlag_CORSHighSecurity         bool `env:"CORS_HIGH_SECURITY" envDefault:"true"`
	LDFlag_EnforceOccupancyOnUpdate bool `env:"ENFORCE_OCCUPANCY_ON_UPDATE" envDefault:"false"`
	LDFlag_ExposeErrorStack         bool `env:"EXPOSE_ERROR_STACK" envDefault:"false"`

	RSAPublicKey *rsa.PublicKey `env:"-"`
}

// EnforceOccupancyOnUpdate reports whether general updates must keep status
// and occupant in agreement.
func (c *Config) EnforceOccupancyOnUpdate() bool { return c.LDFlag_EnforceOccupancyOnUpdate }

// ExposeErrorStack reports whether error bodies may carry stack traces.
func (c *Config) ExposeErrorStack() bool {
	return c.Env == EnvDevelopment || c.LDFlag_ExposeErrorStack
}

// FlagSource is the slice of the LaunchDarkly client the config needs.
type FlagSource interface {
	BoolVariation(key string, context ldcontext.Context, defaultVal bool) (bool, error)
}

// LoadConfig reads .env (if present), the environment and the feature flags.
// Any failure is fatal.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.Logger.WithError(err).Fatal("Failed to load .env file")
	}

	cfg, err := Parse(nil)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid configuration")
	}
	utils.Logger.Info("Loading config for app: ", cfg.AppName)

	if cfg.LDSDKKey == "" {
		utils.Logger.Warn("LD_SDK_KEY not set; feature flags come from environment fallbacks")
		return cfg
	}

	ldClient, err := ld.MakeClient(cfg.LDSDKKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	defer ldClient.Close()
	if !ldClient.Initialized() {
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}

	if err := cfg.ApplyFlags(ldClient); err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving feature flags")
	}
	return cfg
}

// Parse builds a Config from environ, or from the process environment when
// environ is nil, and decodes the RSA public key.
func Parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}

	pub, err := decodePublicKey(cfg.RSAPublicKeyBase64)
	if err != nil {
		return nil, err
	}
	cfg.RSAPublicKey = pub
	return cfg, nil
}

// ApplyFlags overrides the flag fallbacks with the values served by src.
func (c *Config) ApplyFlags(src FlagSource) error {
	context := ldcontext.NewWithKind(ldcontext.Kind(c.LDServerContextKind), c.LDServerContextKey)

	flags := []struct {
		key string
		dst *bool
	}{
		{"seed_db_with_demo_data", &c.LDFlag_SeedDbWithDemoData},
		{"cors_high_security", &c.LDFlag_CORSHighSecurity},
		{"enforce_occupancy_on_update", &c.LDFlag_EnforceOccupancyOnUpdate},
		{"expose_error_stack", &c.LDFlag_ExposeErrorStack},
	}
	for _, f := range flags {
		v, err := src.BoolVariation(f.key, context, *f.dst)
		if err != nil {
			return fmt.Errorf("flag %s: %w", f.key, err)
		}
		*f.dst = v
		utils.Logger.Debugf("%s flag: %t", f.key, v)
	}
	return nil
}

func decodePublicKey(b64 string) (*rsa.PublicKey, error) {
	publicKeyPEM, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode base64 public key: %w", err)
	}
	if block, _ := pem.Decode(publicKeyPEM); block == nil {
		return nil, errors.New("failed to decode PEM block for public key")
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse RSA public key: %w", err)
	}
	return publicKey, nil
}
