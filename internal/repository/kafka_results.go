package repository

import (
	"context"
	"fmt"
	"time"

	"CrossImpact/internal/domain/models"
	drepo "CrossImpact/internal/domain/repository"
	pkgkafka "CrossImpact/pkg/kafka"
)

// KafkaResults implements ResultSink by publishing JSON records to a single
// topic, keyed by symbol so one symbol's records land on one partition in
// order. Each message carries a kind discriminator for downstream routing.
type KafkaResults struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaResults creates the Kafka result sink.
func NewKafkaResults(producer *pkgkafka.Producer, topic string) drepo.ResultSink {
	return &KafkaResults{producer: producer, topic: topic}
}

type compositeMessage struct {
	Kind              string    `json:"kind"`
	Symbol            string    `json:"symbol"`
	Timestamp         time.Time `json:"timestamp"`
	Score             float64   `json:"score"`
	Loadings          []float64 `json:"loadings"`
	ExplainedVariance float64   `json:"explained_variance"`
	LowFidelity       bool      `json:"low_fidelity"`
}

type priceChangeMessage struct {
	Kind      string    `json:"kind"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	HorizonS  float64   `json:"horizon_seconds"`
	Return    float64   `json:"return"`
}

type regressionMessage struct {
	Kind       string             `json:"kind"`
	Target     string             `json:"target"`
	HorizonS   float64            `json:"horizon_seconds"`
	Mode       string             `json:"mode"`
	Intercept  float64            `json:"intercept"`
	SelfCoef   float64            `json:"self_coef"`
	CrossCoefs map[string]float64 `json:"cross_coefs,omitempty"`
	R2         *float64           `json:"r2"`
	Dominance  *float64           `json:"dominance"`
	NumObs     int                `json:"num_obs"`
	Failed     bool               `json:"failed"`
	FailReason string             `json:"fail_reason,omitempty"`
}

func (s *KafkaResults) StoreComposite(ctx context.Context, records []models.CompositeOFIRecord) error {
	msgs := make([]pkgkafka.Message, 0, len(records))
	for _, rec := range records {
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(rec.Symbol),
			Value: compositeMessage{
				Kind:              "composite_ofi",
				Symbol:            rec.Symbol,
				Timestamp:         rec.Timestamp,
				Score:             rec.Score,
				Loadings:          rec.Loadings[:],
				ExplainedVariance: rec.ExplainedVariance,
				LowFidelity:       rec.LowFidelity,
			},
		})
	}
	if err := s.producer.PublishBatch(ctx, s.topic, msgs); err != nil {
		return fmt.Errorf("publish composite: %w", err)
	}
	return nil
}

func (s *KafkaResults) StorePriceChanges(ctx context.Context, records []models.PriceChangeRecord) error {
	msgs := make([]pkgkafka.Message, 0, len(records))
	for _, rec := range records {
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(rec.Symbol),
			Value: priceChangeMessage{
				Kind:      "price_change",
				Symbol:    rec.Symbol,
				Timestamp: rec.Timestamp,
				HorizonS:  rec.Horizon.Seconds(),
				Return:    rec.Return,
			},
		})
	}
	if err := s.producer.PublishBatch(ctx, s.topic, msgs); err != nil {
		return fmt.Errorf("publish price changes: %w", err)
	}
	return nil
}

func (s *KafkaResults) StoreRegressions(ctx context.Context, results []models.RegressionResult) error {
	msgs := make([]pkgkafka.Message, 0, len(results))
	for _, res := range results {
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(res.TargetSymbol),
			Value: regressionMessage{
				Kind:       "regression",
				Target:     res.TargetSymbol,
				HorizonS:   res.Horizon.Seconds(),
				Mode:       string(res.Mode),
				Intercept:  res.Intercept,
				SelfCoef:   res.SelfCoef,
				CrossCoefs: res.CrossCoefs,
				R2:         res.R2,
				Dominance:  res.Dominance,
				NumObs:     res.NumObs,
				Failed:     res.Failed,
				FailReason: res.FailReason,
			},
		})
	}
	if err := s.producer.PublishBatch(ctx, s.topic, msgs); err != nil {
		return fmt.Errorf("publish regressions: %w", err)
	}
	return nil
}

func (s *KafkaResults) Close() error {
	return s.producer.Close()
}
