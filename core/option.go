package core

import (
	"errors"
)

// Option is a function that configures the Core.
// Options return errors to enable validation during construction.
type Option func(*Core) error

// New creates a Core for cfg. Configuration problems are reported here, as
// *ConfigurationError, rather than on the request path.
//
// Example:
//
//	c, err := core.New(core.Config{
//	    Secret: core.StaticSecret(os.Getenv("JWT_SECRET")),
//	    VerifyOptions: core.VerifyOptions{
//	        Audience: []string{"my-api"},
//	    },
//	}, core.WithLogger(slog.Default()))
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(cfg Config, opts ...Option) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults()

	// Static keys are normalized once so PEM data is not parsed per request.
	if cfg.Secret.Kind() == SecretStatic {
		key, err := NormalizeKey(cfg.Secret.static)
		if err != nil {
			return nil, configError("Secret", err.Error())
		}
		cfg.Secret = StaticKey(key)
	}

	c := &Core{
		config:   cfg,
		verifier: NewJWXVerifier(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// WithVerifier replaces the default jwx based Verifier.
func WithVerifier(v Verifier) Option {
	return func(c *Core) error {
		if v == nil {
			return errors.New("verifier cannot be nil")
		}
		c.verifier = v
		return nil
	}
}

// WithLogger sets an optional logger for the Core. Nothing is logged
// without one.
func WithLogger(logger Logger) Option {
	return func(c *Core) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}
