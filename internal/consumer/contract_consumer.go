package consumer

import (
	"context"
	"encoding/json"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/metrics"
	"github.com/rentables/lease-notification-service/internal/service"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"github.com/rentables/lease-notification-service/internal/shared/rabbitmq"
)

const (
	contractExchange   = "contracts"
	contractQueue      = "lease_contract_events"
	contractRoutingKey = "contract.*"
	consumerTag        = "lease-notification-service"
)

// ContractConsumer consumes contract lifecycle events. A contract.created
// event triggers payment schedule generation for the new lease.
type ContractConsumer struct {
	client    *rabbitmq.RabbitMQClient
	contracts *service.ContractService
	logger    *logger.Logger
}

// NewContractConsumer creates a contract event consumer.
func NewContractConsumer(client *rabbitmq.RabbitMQClient, contracts *service.ContractService, log *logger.Logger) *ContractConsumer {
	return &ContractConsumer{
		client:    client,
		contracts: contracts,
		logger:    log,
	}
}

// Start declares the queue topology and consumes until the channel closes.
func (c *ContractConsumer) Start() error {
	c.logger.Info("starting contract event consumer", "queue", contractQueue)

	if err := c.client.DeclareExchange(contractExchange, "topic"); err != nil {
		return err
	}
	if err := c.client.DeclareQueue(contractQueue); err != nil {
		return err
	}
	if err := c.client.BindQueue(contractQueue, contractRoutingKey, contractExchange); err != nil {
		return err
	}

	messages, err := c.client.Consume(contractQueue, consumerTag)
	if err != nil {
		return err
	}

	for msg := range messages {
		c.handle(msg)
	}
	c.logger.Warn("contract event consumer channel closed")
	metrics.ConsumerRestarts.Inc()
	return nil
}

func (c *ContractConsumer) handle(msg rabbitmq.Message) {
	var event domain.ContractEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error("failed to unmarshal contract event",
			"routing_key", msg.RoutingKey,
			"error", err)
		msg.Nack(false, false)
		return
	}

	if event.Type != "contract.created" {
		c.logger.Debug("ignoring contract event", "type", event.Type)
		msg.Ack(false)
		return
	}

	contract := event.Contract
	if contract.CompanyID == "" {
		contract.CompanyID = event.CompanyID
	}

	if err := c.contracts.IngestContract(context.Background(), contract); err != nil {
		// Validation failures will never succeed on redelivery.
		if errors.HasCode(err, errors.CodeValidation) {
			c.logger.Error("dropping invalid contract event",
				"contract_number", contract.ContractNumber,
				"error", err)
			msg.Nack(false, false)
			return
		}
		c.logger.Error("failed to ingest contract, requeueing",
			"contract_number", contract.ContractNumber,
			"error", err)
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
	c.logger.Info("contract event processed", "contract_number", contract.ContractNumber)
}
