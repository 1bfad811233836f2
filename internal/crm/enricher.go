package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"landfolio/server/internal/models"
	"landfolio/server/internal/store"
)

// Enricher runs the serial per-record lead lookup pass over a session's
// table. One record's failure marks that record and moves on; there is no
// retry and no batching, the table is small.
type Enricher struct {
	client *Client
	store  *store.Store
	delay  time.Duration
	logger *logrus.Logger
}

func NewEnricher(client *Client, sessions *store.Store, delay time.Duration, logger *logrus.Logger) *Enricher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Enricher{
		client: client,
		store:  sessions,
		delay:  delay,
		logger: logger,
	}
}

// EnrichSession looks up lead counts for every record in the session and
// writes them back through the store. Returns how many records were
// enriched successfully and how many degraded to an error status.
func (e *Enricher) EnrichSession(ctx context.Context, id uuid.UUID) (enriched, failed int, err error) {
	session, err := e.store.Get(id)
	if err != nil {
		return 0, 0, err
	}

	counts := make([]int, len(session.Properties))
	statuses := make([]string, len(session.Properties))

	for i := range session.Properties {
		if i > 0 {
			// Pace requests the way the CRM's rate limits expect.
			select {
			case <-ctx.Done():
				return enriched, failed, ctx.Err()
			case <-time.After(e.delay):
			}
		}

		p := &session.Properties[i].Property
		count, lookupErr := e.client.LeadCount(ctx, p)
		if lookupErr != nil {
			e.logger.WithError(lookupErr).WithField("property", p.ID).Warn("Lead lookup failed")
			counts[i] = 0
			statuses[i] = models.LeadStatusError
			failed++
			continue
		}
		counts[i] = count
		statuses[i] = models.LeadStatusOK
		enriched++
	}

	err = e.store.Update(id, func(sess *store.Session) {
		for i := range sess.Properties {
			if i < len(counts) {
				sess.Properties[i].LeadCount = counts[i]
				sess.Properties[i].LeadStatus = statuses[i]
			}
		}
	})
	if err != nil {
		return enriched, failed, err
	}

	e.logger.WithFields(logrus.Fields{
		"session_id": id,
		"enriched":   enriched,
		"failed":     failed,
	}).Info("Finished lead enrichment pass")

	return enriched, failed, nil
}
