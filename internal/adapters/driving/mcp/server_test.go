package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil pipeline returns error", func(t *testing.T) {
		ports := &Ports{Companies: &mockCompanyService{}}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingPipeline)
	})

	t.Run("nil company service returns error", func(t *testing.T) {
		ports := &Ports{Pipeline: &mockPipeline{}}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingCompanyService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Pipeline:  &mockPipeline{},
			Companies: &mockCompanyService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("missing pipeline returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingPipeline)
	})

	t.Run("pipeline and companies is valid", func(t *testing.T) {
		ports := &Ports{
			Pipeline:  &mockPipeline{},
			Companies: &mockCompanyService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})

	t.Run("sources is optional", func(t *testing.T) {
		ports := &Ports{
			Pipeline:  &mockPipeline{},
			Companies: &mockCompanyService{},
			Sources:   &mockSourceCatalog{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}
