package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landfolio/server/internal/models"
	"landfolio/server/internal/store"
)

func leadServer(t *testing.T, responses map[string][]map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || user != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		query := r.URL.Query().Get("query")
		data := responses[query]
		if data == nil {
			data = []map[string]string{}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
}

func testProperty() *models.Property {
	return &models.Property{
		ID:           "lead_1",
		DisplayName:  "Smith Ranch",
		County:       "Travis",
		ParcelNumber: "R-123456",
	}
}

func TestLeadCount_ExcludesDeadStatuses(t *testing.T) {
	server := leadServer(t, map[string][]map[string]string{
		"R-123456": {
			{"id": "l1", "status_label": "Interested"},
			{"id": "l2", "status_label": "Dead"},
			{"id": "l3", "status_label": "Do Not Contact"},
			{"id": "l4", "status_label": "Qualified"},
		},
	})
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, logrus.New())
	count, err := client.LeadCount(context.Background(), testProperty())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLeadCount_PhrasingFallback(t *testing.T) {
	// Nothing under the parcel number; the display-name phrasing hits.
	server := leadServer(t, map[string][]map[string]string{
		"Smith Ranch": {{"id": "l1", "status_label": "Interested"}},
	})
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, logrus.New())
	count, err := client.LeadCount(context.Background(), testProperty())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLeadCount_NoResultsAnywhere(t *testing.T) {
	server := leadServer(t, nil)
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, logrus.New())
	count, err := client.LeadCount(context.Background(), testProperty())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestLeadCount_Unauthorized(t *testing.T) {
	server := leadServer(t, nil)
	defer server.Close()

	client := NewClient(server.URL, "wrong-key", time.Second, logrus.New())
	_, err := client.LeadCount(context.Background(), testProperty())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestQueryPhrasings(t *testing.T) {
	p := testProperty()
	p.StreetAddress = "1200 Ranch Rd"
	assert.Equal(t, []string{
		"R-123456",
		"Smith Ranch",
		"Smith Ranch Travis",
		"1200 Ranch Rd",
	}, queryPhrasings(p))

	// The sentinel county never joins a phrasing.
	p.County = models.UnknownCounty
	assert.NotContains(t, queryPhrasings(p), "Smith Ranch Unknown County")

	bare := &models.Property{ID: "lead_9"}
	assert.Equal(t, []string{"lead_9"}, queryPhrasings(bare))
}

func TestEnrichSession_DegradesPerRecord(t *testing.T) {
	server := leadServer(t, map[string][]map[string]string{
		"R-123456": {{"id": "l1", "status_label": "Interested"}},
	})
	defer server.Close()

	sessions := store.NewStore(time.Hour, time.Minute, logrus.New())

	good := models.DerivedProperty{}
	good.Property = *testProperty()

	// Bad auth cannot be simulated per record against one server, so use a
	// record whose lookup succeeds with zero results alongside the hit.
	quiet := models.DerivedProperty{}
	quiet.ID = "lead_2"
	quiet.DisplayName = "Silent Forty"

	session := sessions.Put("export.csv", []models.DerivedProperty{good, quiet}, nil)

	client := NewClient(server.URL, "test-key", time.Second, logrus.New())
	enricher := NewEnricher(client, sessions, time.Millisecond, logrus.New())

	enriched, failed, err := enricher.EnrichSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, enriched)
	assert.Equal(t, 0, failed)

	got, err := sessions.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Properties[0].LeadCount)
	assert.Equal(t, models.LeadStatusOK, got.Properties[0].LeadStatus)
	assert.Equal(t, 0, got.Properties[1].LeadCount)
}

func TestEnrichSession_AuthFailureMarksRecordsAndContinues(t *testing.T) {
	server := leadServer(t, nil)
	defer server.Close()

	sessions := store.NewStore(time.Hour, time.Minute, logrus.New())
	one := models.DerivedProperty{}
	one.Property = *testProperty()
	two := models.DerivedProperty{}
	two.ID = "lead_2"
	two.DisplayName = "Back Forty"
	session := sessions.Put("export.csv", []models.DerivedProperty{one, two}, nil)

	client := NewClient(server.URL, "wrong-key", time.Second, logrus.New())
	enricher := NewEnricher(client, sessions, time.Millisecond, logrus.New())

	enriched, failed, err := enricher.EnrichSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, enriched)
	assert.Equal(t, 2, failed)

	got, err := sessions.Get(session.ID)
	require.NoError(t, err)
	for _, p := range got.Properties {
		assert.Equal(t, models.LeadStatusError, p.LeadStatus)
		assert.Equal(t, 0, p.LeadCount)
	}
}
