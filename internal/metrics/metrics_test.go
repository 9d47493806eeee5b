package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ToolCompiled("transition")
		r.ToolInvoked("transition", time.Millisecond, nil)
		r.Validated(OutcomeOK)
		r.ModelSynthesized()
	})
}

func TestRecorder_Counts(t *testing.T) {
	r := New()

	r.ToolCompiled("data_collection")
	r.ToolCompiled("data_collection")
	r.ToolInvoked("transition", time.Millisecond, nil)
	r.ToolInvoked("transition", time.Millisecond, errors.New("boom"))
	r.Validated(OutcomeInvalid)
	r.ModelSynthesized()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.toolsCompiled.WithLabelValues("data_collection")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.invocations.WithLabelValues("transition", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.invocations.WithLabelValues("transition", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.validations.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.models))
}

func TestRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewWithRegistry(reg, reg)
	require.NoError(t, err)

	_, err = NewWithRegistry(reg, reg)
	assert.Error(t, err)
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ModelSynthesized()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "flowkit_models_synthesized_total 1"))
}
