package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/denali-js/go-jwt-middleware/core"
	"github.com/denali-js/go-jwt-middleware/jwks"
)

// EnvPrefix is prepended to every variable name read by FromEnv.
const EnvPrefix = "JWT_"

var (
	// ErrParsingConfig is returned when the environment or a YAML document
	// cannot be parsed into Config.
	ErrParsingConfig = errors.New("failed to parse jwt configuration")

	// ErrNoKeySource is returned by Build when no key source is set.
	ErrNoKeySource = errors.New("one of secret, public_key_file, jwks_url or issuer_url is required")
)

// Config is the serializable form of core.Config. Exactly one key source
// (Secret, PublicKeyFile, JWKSURL or IssuerURL) must be set.
type Config struct {
	Secret        string `env:"SECRET" yaml:"secret"`
	PublicKeyFile string `env:"PUBLIC_KEY_FILE" yaml:"public_key_file"`

	// JWKSURL fetches keys directly; IssuerURL discovers the JWKS endpoint.
	JWKSURL   string `env:"JWKS_URL" yaml:"jwks_url"`
	IssuerURL string `env:"ISSUER_URL" yaml:"issuer_url"`

	JWKSCacheTTL time.Duration `env:"JWKS_CACHE_TTL" yaml:"jwks_cache_ttl"`
	// RedisAddr, when set, shares the key set cache through Redis.
	RedisAddr string `env:"JWKS_REDIS_ADDR" yaml:"jwks_redis_addr"`

	Algorithms       []string      `env:"ALGORITHMS" yaml:"algorithms"`
	Audience         []string      `env:"AUDIENCE" yaml:"audience"`
	Issuer           []string      `env:"ISSUER" yaml:"issuer"`
	Subject          string        `env:"SUBJECT" yaml:"subject"`
	ClockTolerance   time.Duration `env:"CLOCK_TOLERANCE" yaml:"clock_tolerance"`
	MaxAge           time.Duration `env:"MAX_AGE" yaml:"max_age"`
	IgnoreExpiration bool          `env:"IGNORE_EXPIRATION" yaml:"ignore_expiration"`
	IgnoreNotBefore  bool          `env:"IGNORE_NOT_BEFORE" yaml:"ignore_not_before"`

	RequestProperty     string `env:"REQUEST_PROPERTY" yaml:"request_property"`
	CredentialsOptional bool   `env:"CREDENTIALS_OPTIONAL" yaml:"credentials_optional"`
}

var dotenvLoaded sync.Once

// FromEnv reads Config from JWT_* environment variables. A .env file in the
// working directory is loaded once per process; variables already set win.
func FromEnv() (*Config, error) {
	dotenvLoaded.Do(func() {
		// A missing .env file is fine.
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	return &cfg, nil
}

// FromYAML decodes Config from r. Unknown keys are rejected.
func FromYAML(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	return &cfg, nil
}

// LoadFile decodes the YAML file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening jwt configuration: %w", err)
	}
	defer f.Close()

	return FromYAML(f)
}

// Build turns c into a core.Config. Problems with the values themselves are
// reported as *core.ConfigurationError.
func (c *Config) Build(ctx context.Context) (core.Config, error) {
	secret, release, err := c.secret(ctx)
	if err != nil {
		return core.Config{}, err
	}

	cfg := core.Config{
		Secret:              secret,
		RequestProperty:     c.RequestProperty,
		CredentialsOptional: c.CredentialsOptional,
		VerifyOptions: core.VerifyOptions{
			Algorithms:       c.Algorithms,
			Audience:         c.Audience,
			Issuer:           c.Issuer,
			Subject:          c.Subject,
			ClockTolerance:   c.ClockTolerance,
			MaxAge:           c.MaxAge,
			IgnoreExpiration: c.IgnoreExpiration,
			IgnoreNotBefore:  c.IgnoreNotBefore,
		},
	}
	if err := cfg.Validate(); err != nil {
		release()
		return core.Config{}, err
	}
	return cfg, nil
}

// secret builds the key source. release frees what it opened, such as a
// Redis connection pool, when the rest of Build fails.
func (c *Config) secret(ctx context.Context) (secret core.Secret, release func(), err error) {
	release = func() {}
	sources := 0
	for _, s := range []string{c.Secret, c.PublicKeyFile, c.JWKSURL, c.IssuerURL} {
		if s != "" {
			sources++
		}
	}
	switch {
	case sources == 0:
		return core.Secret{}, release, &core.ConfigurationError{Field: "Secret", Message: ErrNoKeySource.Error()}
	case sources > 1:
		return core.Secret{}, release, &core.ConfigurationError{Field: "Secret", Message: "only one key source may be set"}
	}

	switch {
	case c.Secret != "":
		return core.StaticSecret(c.Secret), release, nil
	case c.PublicKeyFile != "":
		pem, err := os.ReadFile(c.PublicKeyFile)
		if err != nil {
			return core.Secret{}, release, &core.ConfigurationError{Field: "PublicKeyFile", Message: err.Error()}
		}
		return core.StaticKey(pem), release, nil
	default:
		return c.jwksSecret(ctx)
	}
}

func (c *Config) jwksSecret(ctx context.Context) (core.Secret, func(), error) {
	var opts []jwks.Option
	release := func() {}

	if c.JWKSURL != "" {
		u, err := url.Parse(c.JWKSURL)
		if err != nil {
			return core.Secret{}, release, &core.ConfigurationError{Field: "JWKSURL", Message: err.Error()}
		}
		opts = append(opts, jwks.WithCustomJWKSURI(u))
	} else {
		u, err := url.Parse(c.IssuerURL)
		if err != nil {
			return core.Secret{}, release, &core.ConfigurationError{Field: "IssuerURL", Message: err.Error()}
		}
		opts = append(opts, jwks.WithIssuerURL(u))
	}

	if c.JWKSCacheTTL > 0 {
		opts = append(opts, jwks.WithCacheTTL(c.JWKSCacheTTL))
	}

	if c.RedisAddr != "" {
		var redisOpts []jwks.RedisCacheOption
		if c.JWKSCacheTTL > 0 {
			redisOpts = append(redisOpts, jwks.WithRedisTTL(c.JWKSCacheTTL))
		}
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		cache, err := jwks.NewRedisCache(ctx, client, redisOpts...)
		if err != nil {
			_ = client.Close()
			return core.Secret{}, release, fmt.Errorf("jwks redis cache: %w", err)
		}
		release = func() { _ = cache.Close() }
		opts = append(opts, jwks.WithCache(cache))
	}

	provider, err := jwks.NewCachingProvider(opts...)
	if err != nil {
		release()
		return core.Secret{}, func() {}, &core.ConfigurationError{Field: "JWKS", Message: err.Error()}
	}
	return provider.Secret(), release, nil
}

// Loader adapts load to jwtmiddleware.WithConfigLoader:
//
//	jwtmiddleware.WithConfigLoader(config.Loader(config.FromEnv))
func Loader(load func() (*Config, error)) func(ctx context.Context) (core.Config, error) {
	return func(ctx context.Context) (core.Config, error) {
		c, err := load()
		if err != nil {
			return core.Config{}, err
		}
		return c.Build(ctx)
	}
}
