package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesLadderCollectors(t *testing.T) {
	reg := Init(zerolog.Nop())
	ResortsTotal.WithLabelValues("TEST", "bid").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ladder_resorts_total")
	assert.Contains(t, body, `ladder_resorts_total{side="bid",ticker="TEST"}`)
}
