// Package export ships completed route calculations to an external webhook in
// batches, for dashboards and audit trails outside the engine.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/stableroute-engine/internal/model"
)

// Exporter batches evaluations and POSTs them to a webhook on an interval.
// A zero-value webhook URL disables it entirely.
type Exporter struct {
	webhookURL string
	apiKey     string
	batchSize  int
	interval   time.Duration

	httpClient *http.Client

	mu    sync.Mutex
	batch []*model.RouteCalculation

	cancel context.CancelFunc
}

// New creates an Exporter. When webhookURL is empty the exporter is inert and
// all its methods are no-ops.
func New(webhookURL, apiKey string, batchSize int, interval time.Duration) *Exporter {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Exporter{
		webhookURL: webhookURL,
		apiKey:     apiKey,
		batchSize:  batchSize,
		interval:   interval,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Start launches the periodic flush loop.
func (e *Exporter) Start() {
	if e.webhookURL == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	go func() {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.Flush(ctx); err != nil {
					logrus.Warnf("Evaluation export failed: %v", err)
				}
			}
		}
	}()
	logrus.Infof("Evaluation exporter started, interval %s", e.interval)
}

// Stop halts the flush loop and attempts a final flush.
func (e *Exporter) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	if e.webhookURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Flush(ctx)
	}
}

// Add queues a calculation for export, flushing early when the batch is full.
func (e *Exporter) Add(calc *model.RouteCalculation) {
	if e.webhookURL == "" {
		return
	}

	e.mu.Lock()
	e.batch = append(e.batch, calc)
	full := len(e.batch) >= e.batchSize
	e.mu.Unlock()

	if full {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Flush(ctx); err != nil {
				logrus.Warnf("Evaluation export failed: %v", err)
			}
		}()
	}
}

// Flush sends the pending batch to the webhook.
func (e *Exporter) Flush(ctx context.Context) error {
	e.mu.Lock()
	batch := e.batch
	e.batch = nil
	e.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"evaluations": batch,
		"exported_at": time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to serialize batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	logrus.Debugf("Exported %d evaluations", len(batch))
	return nil
}
