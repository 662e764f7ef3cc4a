package interpret

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ayusman/mudra/internal/clock"
)

// Providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderDemo   = "demo"
)

// Config selects and configures the interpretation backend.
type Config struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`

	// HTTPClient overrides the transport; tests point it at httptest.
	HTTPClient *http.Client `yaml:"-"`
}

// DefaultConfig returns the Gemini setup.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderGemini,
		Temperature: 0.4,
		Timeout:     30 * time.Second,
	}
}

// ResolveAPIKey fills APIKey from the provider's environment variable
// when the config leaves it empty.
func (c Config) ResolveAPIKey() Config {
	if c.APIKey != "" {
		return c
	}
	switch c.Provider {
	case ProviderGemini:
		c.APIKey = os.Getenv("GEMINI_API_KEY")
		if c.APIKey == "" {
			c.APIKey = os.Getenv("API_KEY")
		}
	case ProviderOpenAI:
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return c
}

// Validate checks the provider, its settings and credentials.
func (c Config) Validate() error {
	if err := c.ValidateSettings(); err != nil {
		return err
	}
	if c.Provider != ProviderDemo && c.APIKey == "" {
		return fmt.Errorf("interpreter %s: api key is required", c.Provider)
	}
	return nil
}

// ValidateSettings checks everything but credentials, which may only be
// resolved from the environment at startup.
func (c Config) ValidateSettings() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderDemo:
	default:
		return fmt.Errorf("interpreter provider %q: want %s, %s or %s", c.Provider, ProviderGemini, ProviderOpenAI, ProviderDemo)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("interpreter temperature %v: want [0, 2]", c.Temperature)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("interpreter timeout %s: must not be negative", c.Timeout)
	}
	return nil
}

// backendConfig holds the resolved settings shared by the HTTP backends.
type backendConfig struct {
	http        *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
}

func newBackendConfig(cfg Config) backendConfig {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return backendConfig{
		http:        client,
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// New builds the Interpreter named by cfg.Provider.
func New(cfg Config, clk clock.Clock) (Interpreter, error) {
	cfg = cfg.ResolveAPIKey()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderDemo:
		return NewDemo(clk, DefaultDemoLatency), nil
	default:
		return NewGemini(cfg), nil
	}
}
