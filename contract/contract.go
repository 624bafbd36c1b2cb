//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-hub/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the send capability the core requires from the transport layer.
// Consume must honour the deadline carried by ctx; it must never block past it.
type EventSink interface {
	Consume(ctx context.Context, e domain.ChatEvent) error
}

// ICore is the callback surface the transport collaborator drives.
// OnOpen hands over a per-connection sink, OnMessage delivers a decoded
// event for a destination, OnClose funnels both graceful and abrupt
// disconnections into the same teardown path.
type ICore interface {
	OnOpen(connID string, sink EventSink) error
	OnMessage(ctx context.Context, connID, destination string, e domain.ChatEvent)
	OnClose(ctx context.Context, connID string)
}
