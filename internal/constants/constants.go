package constants

import "time"

const (
	// Request
	MaxRequestBodyBytes = 1 << 20

	// Server
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 15 * time.Second

	// CORS
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:3000"

	// Database connection
	DBConnectMaxAttempts  = 5
	DBConnectInitialDelay = 1 * time.Second
)
