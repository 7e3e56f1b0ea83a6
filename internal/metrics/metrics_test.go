package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsGatherWithNamespace(t *testing.T) {
	m := New("test")
	reg := prometheus.NewRegistry()
	for _, c := range m.Collectors() {
		require.NoError(t, reg.Register(c))
	}

	m.ActivitiesRecorded.WithLabelValues("view_detail").Inc()
	m.ActivitiesRecorded.WithLabelValues("view_detail").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() != "test_activities_recorded_total" {
			continue
		}
		found = true
		require.Len(t, f.GetMetric(), 1)
		assert.Equal(t, 2.0, f.GetMetric()[0].GetCounter().GetValue())
	}
	assert.True(t, found)
}

func TestRegistryIsSingleton(t *testing.T) {
	assert.Same(t, Registry("showroom_test"), Registry("other"))
}
