package engine

import (
	"resolutionengine/src/catalog"
	"resolutionengine/src/classifier"
	"resolutionengine/src/escalation"
	"resolutionengine/src/model"
	"resolutionengine/src/monitor"
	"resolutionengine/src/notifier"
)

// NewFromEnv assembles an engine with the stock catalog and rule set plus
// the collaborators named in the environment configuration. store and hub
// may be nil.
func NewFromEnv(cfg Config, store Store, hub *notifier.Hub) (*Engine, error) {
	cat, err := catalog.New(catalog.DefaultStrategies())
	if err != nil {
		return nil, err
	}

	deps := Deps{
		Catalog: cat,
		Rules:   escalation.DefaultRules(),
		Store:   store,
	}

	if cfg.ClassifierURL != "" {
		deps.Classifier = classifier.NewHTTPClassifier(cfg.ClassifierURL, cfg.CollaboratorTimeout)
	}
	if cfg.SummarizerURL != "" {
		deps.Summarizer = escalation.NewHTTPSummarizer(cfg.SummarizerURL, cfg.CollaboratorTimeout)
	}

	var notifiers notifier.Multi
	if len(cfg.NotifierWebhooks) > 0 {
		notifiers = append(notifiers, notifier.NewWebhookNotifier(cfg.NotifierWebhooks, cfg.CollaboratorTimeout))
	} else {
		notifiers = append(notifiers, notifier.LogNotifier{})
	}
	if hub != nil {
		notifiers = append(notifiers, hub)
	}
	deps.Notifier = notifiers

	for name, url := range cfg.ProbeURLs {
		deps.Probes = append(deps.Probes, monitor.NewHTTPProbe(name, url, model.TypeSystemError, cfg.CollaboratorTimeout))
	}

	return New(cfg, deps)
}
