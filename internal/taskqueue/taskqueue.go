// Package taskqueue implements the ingest controller's task-queue escape
// hatch (§4.3 supplement): handing an ingest run off to an external
// pipeline system for data sources with no native Stream implementation,
// via a Nexus operation call rather than an inline HTTP integration.
package taskqueue

import (
	"context"
	"fmt"

	"github.com/nexus-rpc/sdk-go/nexus"
	catalogmodel "onyx.dev/onyx/internal/catalog/model"
)

// Publisher enqueues a Task by executing a Nexus operation against an
// external task-queue service and waiting for the operation's result.
type Publisher struct {
	client    *nexus.HTTPClient
	operation nexus.OperationReference[catalogmodel.Task, catalogmodel.Task]
}

// NewPublisher returns a Publisher against the named Nexus service and
// operation.
func NewPublisher(baseURL, service, operationName string) (*Publisher, error) {
	client, err := nexus.NewHTTPClient(nexus.HTTPClientOptions{BaseURL: baseURL, Service: service})
	if err != nil {
		return nil, fmt.Errorf("taskqueue: building client: %w", err)
	}
	return &Publisher{
		client:    client,
		operation: nexus.NewOperationReference[catalogmodel.Task, catalogmodel.Task](operationName),
	}, nil
}

// Enqueue runs the operation for task on the external system, waits for it
// to complete, and returns the Task the operation produced (with the
// system's assigned ExternalID).
func (p *Publisher) Enqueue(ctx context.Context, task catalogmodel.Task) (*catalogmodel.Task, error) {
	result, err := nexus.ExecuteOperation(ctx, p.client, p.operation, task, nexus.ExecuteOperationOptions{})
	if err != nil {
		return nil, fmt.Errorf("taskqueue: enqueue %s: %w", task.ID, err)
	}
	return &result, nil
}
