package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ProviderSettings is one provider's key/endpoint/model triple.
type ProviderSettings struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// ScenarioOverride pins a provider/model pair for one AI scenario.
// Empty fields fall back to the global default provider.
type ScenarioOverride struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DBPath     string `yaml:"db_path"`
	JWTSecret  string `yaml:"jwt_secret"`

	AIProvider string           `yaml:"ai_provider"`
	DeepSeek   ProviderSettings `yaml:"deepseek"`
	OpenAI     ProviderSettings `yaml:"openai"`
	Anthropic  ProviderSettings `yaml:"anthropic"`

	ContentRecognition ScenarioOverride `yaml:"content_recognition"`
	TaskAnalysis       ScenarioOverride `yaml:"task_analysis"`
	GoalAlignment      ScenarioOverride `yaml:"goal_alignment"`

	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`
	RecurringSchedule          string `yaml:"recurring_schedule"`
}

const defaultJWTSecret = "your-secret-key"

const (
	ProviderDeepSeek  = "deepseek"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// LoadConfig reads config.yaml (or CONFIG_PATH) if present, applies
// env-var overrides, fills defaults and validates. Missing provider
// API keys are deliberately not validated here: a missing key surfaces
// as a gateway dispatch failure at first use and the classifier falls
// back to keyword matching.
func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.JWTSecret, "JWT_SECRET")
	envOverride(&cfg.AIProvider, "AI_PROVIDER")
	envOverride(&cfg.DeepSeek.APIKey, "DEEPSEEK_API_KEY")
	envOverride(&cfg.DeepSeek.BaseURL, "DEEPSEEK_BASE_URL")
	envOverride(&cfg.DeepSeek.Model, "DEEPSEEK_MODEL")
	envOverride(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	envOverride(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	envOverride(&cfg.OpenAI.Model, "OPENAI_MODEL")
	envOverride(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.Anthropic.Model, "ANTHROPIC_MODEL")
	envOverride(&cfg.ContentRecognition.Provider, "CONTENT_RECOGNITION_PROVIDER")
	envOverride(&cfg.ContentRecognition.Model, "CONTENT_RECOGNITION_MODEL")
	envOverride(&cfg.TaskAnalysis.Provider, "TASK_ANALYSIS_PROVIDER")
	envOverride(&cfg.TaskAnalysis.Model, "TASK_ANALYSIS_MODEL")
	envOverride(&cfg.GoalAlignment.Provider, "GOAL_ALIGNMENT_PROVIDER")
	envOverride(&cfg.GoalAlignment.Model, "GOAL_ALIGNMENT_MODEL")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.RecurringSchedule, "RECURRING_SCHEDULE")

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./mindflow.db"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
		log.Println("jwt_secret not set, using insecure default")
	}
	if cfg.AIProvider == "" {
		cfg.AIProvider = ProviderDeepSeek
	}
	if cfg.DeepSeek.BaseURL == "" {
		cfg.DeepSeek.BaseURL = "https://api.deepseek.com"
	}
	if cfg.DeepSeek.Model == "" {
		cfg.DeepSeek.Model = "deepseek-chat"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-3.5-turbo"
	}
	if cfg.Anthropic.Model == "" {
		cfg.Anthropic.Model = "claude-3-sonnet-20240229"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = 30
	}

	// Validate
	if !ValidProvider(cfg.AIProvider) {
		log.Fatalf("ai_provider must be 'deepseek', 'openai' or 'anthropic', got '%s'", cfg.AIProvider)
	}
	for name, override := range map[string]ScenarioOverride{
		"content_recognition": cfg.ContentRecognition,
		"task_analysis":       cfg.TaskAnalysis,
		"goal_alignment":      cfg.GoalAlignment,
	} {
		if override.Provider != "" && !ValidProvider(override.Provider) {
			log.Fatalf("invalid %s provider '%s'", name, override.Provider)
		}
	}
	if cfg.ExternalHTTPTimeoutSeconds < 1 {
		log.Fatalf("invalid external_http_timeout_seconds '%d': must be >= 1", cfg.ExternalHTTPTimeoutSeconds)
	}

	return cfg
}

func ValidProvider(name string) bool {
	switch name {
	case ProviderDeepSeek, ProviderOpenAI, ProviderAnthropic:
		return true
	}
	return false
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
