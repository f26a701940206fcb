package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	platformkafka "github.com/juulhao/payhook/platform/kafka"
	platformlogging "github.com/juulhao/payhook/platform/logging"

	eventkafka "github.com/juulhao/payhook/internal/event/kafka"
	"github.com/juulhao/payhook/internal/repository"
)

type eventLine struct {
	ID                string `json:"id"`
	ExternalReference string `json:"externalReference"`
	Event             string `json:"event"`
	PaymentID         string `json:"paymentId"`
	Status            string `json:"status"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Timestamp         string `json:"timestamp"`
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect payment events published to Kafka",
	}
	cmd.AddCommand(eventsTailCmd())
	return cmd
}

// eventsTailCmd печатает события из топика KAFKA_PAYMENT_EVENTS_TOPIC в stdout, по одному JSON на строку
func eventsTailCmd() *cobra.Command {
	var (
		fromBeginning bool
		ref           string
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print payment events from Kafka as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := platformlogging.New(platformlogging.Config{
				ServiceName: "payhook-events",
				Env:         "local",
				Level:       os.Getenv("LOG_LEVEL"),
				Format:      "console",
				Output:      os.Stderr,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer platformlogging.Sync(logger)

			// Брокеры и топик из тех же переменных, что и у сервиса; KAFKA_ENABLED не требуется
			cfg, err := platformkafka.LoadEnv()
			if err != nil {
				return err
			}
			logger.Info("tailing payment events",
				zap.Strings("brokers", cfg.Brokers),
				zap.String("topic", cfg.PaymentEventsTopic),
				zap.Bool("from_beginning", fromBeginning),
			)

			tail := eventkafka.NewTail(logger, cfg.Brokers, cfg.PaymentEventsTopic, fromBeginning)
			defer func() {
				if err := tail.Close(); err != nil {
					logger.Error("failed to close kafka reader", zap.Error(err))
				}
			}()

			enc := json.NewEncoder(cmd.OutOrStdout())
			return tail.Run(cmd.Context(), func(e repository.PaymentEvent) error {
				if ref != "" && e.ExternalReference != ref {
					return nil
				}
				return enc.Encode(eventLine{
					ID:                e.ID,
					ExternalReference: e.ExternalReference,
					Event:             e.Event,
					PaymentID:         e.PaymentID,
					Status:            e.Status,
					Amount:            e.Amount.String(),
					Currency:          e.Currency,
					Timestamp:         e.Timestamp.UTC().Format(time.RFC3339),
				})
			})
		},
	}

	cmd.Flags().BoolVar(&fromBeginning, "from-beginning", false, "read the topic from the first offset")
	cmd.Flags().StringVar(&ref, "ref", "", "only print events of this external reference")

	return cmd
}
