// Package catalog holds the static model registry and the named chain
// registry used to resolve routing policies.
package catalog

import (
	"sync"

	"github.com/relayforge/llm-fallback-gateway/models"
	"github.com/relayforge/llm-fallback-gateway/services"
)

// DefaultModelID is returned by SelectOptimalModel when no catalog
// entry satisfies the requirements. It must always be registered.
const DefaultModelID = "gpt-4o-mini"

// Catalog is a read-mostly registry of model descriptors and named
// chains. Models are registered once at startup; chains may be added
// and removed through the administrative operations.
type Catalog struct {
	mu     sync.RWMutex
	models map[string]*models.ModelDescriptor
	order  []string // registration order, for deterministic first-match selection
	chains map[string]*models.ChainDescriptor
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{
		models: make(map[string]*models.ModelDescriptor),
		chains: make(map[string]*models.ChainDescriptor),
	}
}

// RegisterModel adds a model descriptor to the catalog.
// Re-registering an id overwrites the descriptor but keeps its position.
func (c *Catalog) RegisterModel(m *models.ModelDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.models[m.ID]; !exists {
		c.order = append(c.order, m.ID)
	}
	c.models[m.ID] = m
}

// GetModel returns the descriptor for a model id
func (c *Catalog) GetModel(id string) (*models.ModelDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.models[id]
	if !ok {
		return nil, services.NewDomainError(services.ErrorTypeConfiguration, "model not present in catalog", nil).
			WithDetail("model_id", id)
	}
	return m, nil
}

// ListModels returns all descriptors in registration order
func (c *Catalog) ListModels() []*models.ModelDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*models.ModelDescriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.models[id])
	}
	return out
}

// SelectOptimalModel returns the id of the first registered model that
// satisfies every requirement. Filtering is a strict intersection over
// candidates with no secondary scoring; when nothing survives the
// filter the static DefaultModelID is returned instead of an error.
func (c *Catalog) SelectOptimalModel(req models.ModelRequirements) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, id := range c.order {
		if req.Matches(c.models[id]) {
			return id
		}
	}
	return DefaultModelID
}

// AddChain registers a named chain. Every referenced model id must
// already exist in the catalog and the chain must name at least one.
func (c *Catalog) AddChain(chain *models.ChainDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if chain.Name == "" || len(chain.Models) == 0 {
		return services.NewDomainError(services.ErrorTypeValidation, "chain must have a name and at least one model", nil).
			WithDetail("chain", chain.Name)
	}
	if _, exists := c.chains[chain.Name]; exists {
		return services.NewDomainError(services.ErrorTypeConflict, "chain already exists", nil).
			WithDetail("chain", chain.Name)
	}
	for _, id := range chain.Models {
		if _, ok := c.models[id]; !ok {
			return services.NewDomainError(services.ErrorTypeConfiguration, "chain references unknown model", nil).
				WithDetail("chain", chain.Name).
				WithDetail("model_id", id)
		}
	}

	c.chains[chain.Name] = chain
	return nil
}

// RemoveChain deletes a named chain
func (c *Catalog) RemoveChain(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.chains[name]; !ok {
		return services.NewDomainError(services.ErrorTypeConfiguration, "chain not found", nil).
			WithDetail("chain", name)
	}
	delete(c.chains, name)
	return nil
}

// GetChain returns the chain registered under name
func (c *Catalog) GetChain(name string) (*models.ChainDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	chain, ok := c.chains[name]
	if !ok {
		return nil, services.NewDomainError(services.ErrorTypeConfiguration, "chain not found", nil).
			WithDetail("chain", name)
	}
	return chain, nil
}

// ListChains returns all registered chains
func (c *Catalog) ListChains() []*models.ChainDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*models.ChainDescriptor, 0, len(c.chains))
	for _, chain := range c.chains {
		out = append(out, chain)
	}
	return out
}
