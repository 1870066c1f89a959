package domain

const (
	DefaultListenAddress              = "0.0.0.0:8080"
	DefaultObservabilityListenAddress = "0.0.0.0:9090"
	DefaultToolTimeoutSeconds         = 60
	DefaultConnectTimeoutSeconds      = 30
	DefaultHealthCheckTimeoutSeconds  = 5
	DefaultMaxAgeSeconds              = 120
	DefaultGlobalConnectSeconds       = 120
	DefaultHeartbeatSeconds           = 5
	DefaultMaxSteps                   = 20
	DefaultModelProvider              = "openai"
	DefaultModelBaseURL               = "https://api.x.ai/v1"
	DefaultModelAPIKeyEnvVar          = "XAI_API_KEY"
	DefaultModel                      = "grok-4-1-fast-non-reasoning"
	DefaultTunnelSecretHeader         = "X-Auth-Token"
	DefaultClientName                 = "guardiangw"
	DefaultClientVersion              = "0.1.0"
	DefaultStreamableHTTPMaxRetries   = 5
	DefaultTokenStorePath             = "~/.guardiangw/tokens.db"
)

// DefaultExcludePatterns is injected into directory tree listings that do
// not specify their own exclusions.
var DefaultExcludePatterns = []string{
	".git", ".idea", "node_modules", "__pycache__", ".venv", "venv",
	"dist", "build", ".next", "coverage", ".turbo",
}
