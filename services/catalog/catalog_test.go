package catalog

import (
	"testing"

	"github.com/relayforge/llm-fallback-gateway/models"
	"github.com/relayforge/llm-fallback-gateway/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog(t *testing.T) *Catalog {
	t.Helper()

	c := New()
	c.RegisterModel(&models.ModelDescriptor{
		ID:           "cheap-text",
		Provider:     "openai",
		Name:         "cheap-text",
		CostTier:     models.CostTierLow,
		Capabilities: []models.Capability{models.CapabilityText},
		MaxTokens:    16000,
	})
	c.RegisterModel(&models.ModelDescriptor{
		ID:       "mid-vision",
		Provider: "openai",
		Name:     "mid-vision",
		CostTier: models.CostTierMedium,
		Capabilities: []models.Capability{
			models.CapabilityText, models.CapabilityVision,
		},
		MaxTokens: 64000,
	})
	c.RegisterModel(&models.ModelDescriptor{
		ID:       "big-reasoner",
		Provider: "openai",
		Name:     "big-reasoner",
		CostTier: models.CostTierHigh,
		Capabilities: []models.Capability{
			models.CapabilityText, models.CapabilityReasoning,
		},
		MaxTokens: 128000,
	})
	return c
}

func TestCatalog_RegisterAndGetModel(t *testing.T) {
	c := seedCatalog(t)

	m, err := c.GetModel("mid-vision")
	require.NoError(t, err)
	assert.Equal(t, "mid-vision", m.ID)
	assert.Equal(t, models.CostTierMedium, m.CostTier)
}

func TestCatalog_GetModel_Unknown(t *testing.T) {
	c := seedCatalog(t)

	_, err := c.GetModel("nope")
	require.Error(t, err)
	assert.True(t, services.IsConfigurationError(err))
	assert.Equal(t, "nope", services.GetErrorDetails(err)["model_id"])
}

func TestCatalog_ListModels_KeepsRegistrationOrder(t *testing.T) {
	c := seedCatalog(t)

	listed := c.ListModels()
	require.Len(t, listed, 3)
	assert.Equal(t, "cheap-text", listed[0].ID)
	assert.Equal(t, "mid-vision", listed[1].ID)
	assert.Equal(t, "big-reasoner", listed[2].ID)
}

func TestCatalog_RegisterModel_OverwriteKeepsPosition(t *testing.T) {
	c := seedCatalog(t)
	c.RegisterModel(&models.ModelDescriptor{
		ID:       "cheap-text",
		Provider: "openai",
		Name:     "cheap-text-v2",
		CostTier: models.CostTierLow,
	})

	listed := c.ListModels()
	require.Len(t, listed, 3)
	assert.Equal(t, "cheap-text", listed[0].ID)
	assert.Equal(t, "cheap-text-v2", listed[0].Name)
}

func TestCatalog_SelectOptimalModel(t *testing.T) {
	c := seedCatalog(t)

	tests := []struct {
		name string
		req  models.ModelRequirements
		want string
	}{
		{
			name: "no requirements picks first registered",
			req:  models.ModelRequirements{},
			want: "cheap-text",
		},
		{
			name: "capability filter skips to first match",
			req: models.ModelRequirements{
				Capabilities: []models.Capability{models.CapabilityVision},
			},
			want: "mid-vision",
		},
		{
			name: "reasoning requirement",
			req: models.ModelRequirements{
				Capabilities: []models.Capability{models.CapabilityReasoning},
			},
			want: "big-reasoner",
		},
		{
			name: "cost tier exact match",
			req:  models.ModelRequirements{CostTier: models.CostTierMedium},
			want: "mid-vision",
		},
		{
			name: "nothing satisfies, falls back to default id",
			req: models.ModelRequirements{
				Capabilities: []models.Capability{models.CapabilityVision, models.CapabilityReasoning},
			},
			want: DefaultModelID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.SelectOptimalModel(tt.req))
		})
	}
}

func TestCatalog_AddChain(t *testing.T) {
	c := seedCatalog(t)

	err := c.AddChain(&models.ChainDescriptor{
		Name:   "general",
		Models: []string{"cheap-text", "mid-vision"},
	})
	require.NoError(t, err)

	chain, err := c.GetChain("general")
	require.NoError(t, err)
	assert.Equal(t, []string{"cheap-text", "mid-vision"}, chain.Models)
}

func TestCatalog_AddChain_Validation(t *testing.T) {
	c := seedCatalog(t)

	tests := []struct {
		name     string
		chain    *models.ChainDescriptor
		wantType services.ErrorType
	}{
		{
			name:     "empty name",
			chain:    &models.ChainDescriptor{Models: []string{"cheap-text"}},
			wantType: services.ErrorTypeValidation,
		},
		{
			name:     "no models",
			chain:    &models.ChainDescriptor{Name: "empty"},
			wantType: services.ErrorTypeValidation,
		},
		{
			name:     "unknown model reference",
			chain:    &models.ChainDescriptor{Name: "bad", Models: []string{"ghost"}},
			wantType: services.ErrorTypeConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.AddChain(tt.chain)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, services.GetErrorType(err))
		})
	}
}

func TestCatalog_AddChain_Duplicate(t *testing.T) {
	c := seedCatalog(t)
	require.NoError(t, c.AddChain(&models.ChainDescriptor{
		Name:   "general",
		Models: []string{"cheap-text"},
	}))

	err := c.AddChain(&models.ChainDescriptor{
		Name:   "general",
		Models: []string{"mid-vision"},
	})
	require.Error(t, err)
	assert.True(t, services.IsConflictError(err))
}

func TestCatalog_RemoveChain(t *testing.T) {
	c := seedCatalog(t)
	require.NoError(t, c.AddChain(&models.ChainDescriptor{
		Name:   "general",
		Models: []string{"cheap-text"},
	}))

	require.NoError(t, c.RemoveChain("general"))

	_, err := c.GetChain("general")
	assert.True(t, services.IsConfigurationError(err))
}

func TestCatalog_RemoveChain_Missing(t *testing.T) {
	c := seedCatalog(t)

	err := c.RemoveChain("ghost")
	require.Error(t, err)
	assert.True(t, services.IsConfigurationError(err))
}

func TestCatalog_ListChains(t *testing.T) {
	c := seedCatalog(t)
	require.NoError(t, c.AddChain(&models.ChainDescriptor{Name: "a", Models: []string{"cheap-text"}}))
	require.NoError(t, c.AddChain(&models.ChainDescriptor{Name: "b", Models: []string{"mid-vision"}}))

	assert.Len(t, c.ListChains(), 2)
}
