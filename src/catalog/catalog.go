package catalog

import (
	"fmt"

	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/model"
)

// Catalog is an immutable registry of resolution strategies. Selection is
// first match in registration order; there is no success-rate ranking, so
// callers should register more specific strategies first.
type Catalog struct {
	strategies []*model.ResolutionStrategy
	byID       map[string]*model.ResolutionStrategy
}

// New validates and freezes the given strategies. A malformed strategy is a
// bootstrap error and fails the whole catalog.
func New(strategies []*model.ResolutionStrategy) (*Catalog, error) {
	c := &Catalog{
		byID: make(map[string]*model.ResolutionStrategy, len(strategies)),
	}

	for _, strat := range strategies {
		if strat == nil {
			return nil, fmt.Errorf("catalog contains nil strategy")
		}
		if strat.ID == "" {
			return nil, fmt.Errorf("strategy %q has empty id", strat.Name)
		}
		if _, exists := c.byID[strat.ID]; exists {
			return nil, fmt.Errorf("duplicate strategy id %q", strat.ID)
		}
		if len(strat.Steps) == 0 {
			return nil, fmt.Errorf("strategy %q has no steps", strat.ID)
		}
		if len(strat.ApplicableTypes) == 0 {
			return nil, fmt.Errorf("strategy %q has no applicable types", strat.ID)
		}
		if strat.MaxAttempts <= 0 {
			return nil, fmt.Errorf("strategy %q has non-positive max attempts", strat.ID)
		}
		if strat.StepTimeout <= 0 {
			return nil, fmt.Errorf("strategy %q has non-positive step timeout", strat.ID)
		}

		c.strategies = append(c.strategies, strat)
		c.byID[strat.ID] = strat
	}

	logger.WithFields(map[string]interface{}{
		"component": "StrategyCatalog",
		"count":     len(c.strategies),
	}).Info("Strategy catalog loaded")

	return c, nil
}

// Select returns the first registered strategy applicable to the given
// exception type, or nil when none matches.
func (c *Catalog) Select(t model.ExceptionType) *model.ResolutionStrategy {
	for _, strat := range c.strategies {
		if strat.AppliesTo(t) {
			return strat
		}
	}
	return nil
}

// ByID looks a strategy up by id. Returns nil when unknown.
func (c *Catalog) ByID(id string) *model.ResolutionStrategy {
	return c.byID[id]
}

// Len returns the number of registered strategies.
func (c *Catalog) Len() int {
	return len(c.strategies)
}
