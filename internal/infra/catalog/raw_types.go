package catalog

type rawConfig struct {
	ListenAddress    string           `mapstructure:"listenAddress"`
	MaxSteps         int              `mapstructure:"maxSteps"`
	Timeouts         rawTimeouts      `mapstructure:"timeouts"`
	Model            rawModel         `mapstructure:"model"`
	SystemPrompt     string           `mapstructure:"systemPrompt"`
	SystemPromptFile string           `mapstructure:"systemPromptFile"`
	TokenStore       rawTokenStore    `mapstructure:"tokenStore"`
	Observability    rawObservability `mapstructure:"observability"`
	Backends         []rawBackend     `mapstructure:"backends"`
}

type rawTimeouts struct {
	ToolSeconds          int `mapstructure:"toolSeconds"`
	ConnectSeconds       int `mapstructure:"connectSeconds"`
	HealthCheckSeconds   int `mapstructure:"healthCheckSeconds"`
	MaxAgeSeconds        int `mapstructure:"maxAgeSeconds"`
	GlobalConnectSeconds int `mapstructure:"globalConnectSeconds"`
	HeartbeatSeconds     int `mapstructure:"heartbeatSeconds"`
}

type rawModel struct {
	Provider     string   `mapstructure:"provider"`
	BaseURL      string   `mapstructure:"baseURL"`
	APIKey       string   `mapstructure:"apiKey"`
	APIKeyEnvVar string   `mapstructure:"apiKeyEnvVar"`
	Default      string   `mapstructure:"default"`
	Allowed      []string `mapstructure:"allowed"`
}

type rawTokenStore struct {
	Path string `mapstructure:"path"`
}

type rawObservability struct {
	ListenAddress string `mapstructure:"listenAddress"`
	Metrics       bool   `mapstructure:"metrics"`
	Healthz       bool   `mapstructure:"healthz"`
}

type rawBackend struct {
	Label              string   `mapstructure:"label"`
	Address            string   `mapstructure:"address"`
	Enabled            *bool    `mapstructure:"enabled"`
	Transport          string   `mapstructure:"transport"`
	TunnelSecretHeader string   `mapstructure:"tunnelSecretHeader"`
	ForwardHeaders     []string `mapstructure:"forwardHeaders"`
	Auth               rawAuth  `mapstructure:"auth"`
}

type rawAuth struct {
	Mode        string   `mapstructure:"mode"`
	Header      string   `mapstructure:"header"`
	TokenEnvVar string   `mapstructure:"tokenEnvVar"`
	TokenHeader string   `mapstructure:"tokenHeader"`
	TokenCookie string   `mapstructure:"tokenCookie"`
	OAuth       rawOAuth `mapstructure:"oauth"`
}

type rawOAuth struct {
	ClientID           string   `mapstructure:"clientID"`
	ClientSecret       string   `mapstructure:"clientSecret"`
	ClientSecretEnvVar string   `mapstructure:"clientSecretEnvVar"`
	TokenURL           string   `mapstructure:"tokenURL"`
	Scopes             []string `mapstructure:"scopes"`
}

// caseSensitiveConfig holds the maps whose keys must keep their spelling.
// viper folds every key to lower case, so these are decoded with yaml.v3.
type caseSensitiveConfig struct {
	Backends []struct {
		Headers          map[string]string         `yaml:"headers"`
		ArgumentDefaults map[string]map[string]any `yaml:"argumentDefaults"`
	} `yaml:"backends"`
}
