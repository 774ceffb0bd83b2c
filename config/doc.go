// Package config loads JWT verification settings from the environment or a
// YAML file and builds a core.Config from them.
//
// Environment variables carry the JWT_ prefix (JWT_SECRET, JWT_JWKS_URL,
// JWT_AUDIENCE=a,b, JWT_CLOCK_TOLERANCE=30s and so on); a .env file in the
// working directory is honoured. YAML documents use the snake_case keys of
// Config:
//
//	issuer_url: https://auth.example.com/
//	audience: [https://api.example.com]
//	issuer: [https://auth.example.com/]
//	clock_tolerance: 30s
//
// Loader plugs either source into the HTTP middleware so the configuration
// is read and validated on first use:
//
//	mw, err := jwtmiddleware.New(
//	    jwtmiddleware.WithConfigLoader(config.Loader(config.FromEnv)),
//	)
package config
