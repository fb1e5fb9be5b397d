package registry

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/connector/binding"
	"github.com/ajitpratap0/metacat/pkg/datasource"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

func noopBuilder(cfg *config.CatalogConfig, _ datasource.Provider) ([]binding.Module, error) {
	return []binding.Module{binding.NewModule(cfg.Type, func(*binding.Binder) error { return nil })}, nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(ConnectorInfo{Type: "hive"}, noopBuilder))
	require.NoError(t, r.Register(ConnectorInfo{Type: "delta"}, noopBuilder))

	err := r.Register(ConnectorInfo{Type: "hive"}, noopBuilder)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "already registered")

	assert.True(t, errors.IsConfiguration(r.Register(ConnectorInfo{}, noopBuilder)))
	assert.True(t, errors.IsConfiguration(r.Register(ConnectorInfo{Type: "s3"}, nil)))

	assert.True(t, r.Has("hive"))
	assert.False(t, r.Has("s3"))

	types := make([]string, 0)
	for _, info := range r.List() {
		types = append(types, info.Type)
	}
	assert.Equal(t, []string{"delta", "hive"}, types)

	r.Clear()
	assert.Empty(t, r.List())
}

func TestRegistry_BuildModules(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(ConnectorInfo{Type: "hive"}, noopBuilder))
	require.NoError(t, r.Register(ConnectorInfo{Type: "broken"}, func(*config.CatalogConfig, datasource.Provider) ([]binding.Module, error) {
		return nil, stderrors.New("metastore uri missing")
	}))

	modules, err := r.BuildModules(config.NewCatalogConfig("warehouse", "hive"), datasource.NewManager())
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "hive", modules[0].Name())

	_, err = r.BuildModules(config.NewCatalogConfig("warehouse", "oracle"), nil)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "connector type oracle not found")

	_, err = r.BuildModules(config.NewCatalogConfig("lake", "broken"), nil)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "metastore uri missing")

	_, err = r.BuildModules(nil, nil)
	assert.True(t, errors.IsConfiguration(err))
}
