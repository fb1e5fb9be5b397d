package metrics

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_ObserveConstruction(t *testing.T) {
	c := NewCollector("test_factory")

	before := testutil.ToFloat64(FactoryConstructions.WithLabelValues("metrics_cat", StatusFailure))
	c.ObserveConstruction("metrics_cat", 5*time.Millisecond, nil)
	c.ObserveConstruction("metrics_cat", time.Millisecond, stderrors.New("bad module"))

	assert.Equal(t, before+1, testutil.ToFloat64(FactoryConstructions.WithLabelValues("metrics_cat", StatusFailure)))
	assert.Equal(t, int64(1), c.Count("constructions_success"))
	assert.Equal(t, int64(1), c.Count("constructions_failure"))
}

func TestCollector_Gauges(t *testing.T) {
	c := NewCollector("test_manager")
	c.SetActiveCatalogs(3)
	c.SetActiveResources(2)

	assert.Equal(t, float64(3), testutil.ToFloat64(ActiveCatalogs))
	assert.Equal(t, float64(2), testutil.ToFloat64(ActiveResources))

	all := c.GetAll()
	assert.Equal(t, "test_manager", all["component"])
}

func TestCollector_StopsAndResolution(t *testing.T) {
	c := NewCollector("test_factory")
	c.FactoryStopped("metrics_stop", nil)
	c.ResolutionFailed("metrics_stop", "table")

	assert.Equal(t, float64(1), testutil.ToFloat64(ResolutionFailures.WithLabelValues("metrics_stop", "table")))
	assert.Equal(t, int64(1), c.Count("stops_success"))
}
