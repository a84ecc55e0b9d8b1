package engine

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AutoResolutionEnabled    bool          `envconfig:"AUTO_RESOLUTION_ENABLED" default:"true"`
	MaxConcurrentResolutions int           `envconfig:"MAX_CONCURRENT_RESOLUTIONS" default:"3"`
	HealthCheckInterval      time.Duration `envconfig:"HEALTH_CHECK_INTERVAL" default:"30s"`
	LearningModeEnabled      bool          `envconfig:"LEARNING_MODE_ENABLED" default:"false"`

	RetryBackoffBase time.Duration `envconfig:"RETRY_BACKOFF_BASE" default:"2s"`
	ArchiveTTL       time.Duration `envconfig:"ARCHIVE_TTL" default:"24h"`

	ClassifierURL       string        `envconfig:"CLASSIFIER_URL"`
	SummarizerURL       string        `envconfig:"SUMMARIZER_URL"`
	CollaboratorTimeout time.Duration `envconfig:"COLLABORATOR_TIMEOUT" default:"5s"`

	// NotifierWebhooks maps channel names to webhook URLs,
	// e.g. "email:https://gw/email,sms:https://gw/sms".
	NotifierWebhooks map[string]string `envconfig:"NOTIFIER_WEBHOOKS"`

	// ProbeURLs maps component names to healthcheck URLs.
	ProbeURLs map[string]string `envconfig:"HEALTH_PROBE_URLS"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
