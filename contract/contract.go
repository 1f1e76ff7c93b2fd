package contract

import (
	"chat-room/domain"
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
func GetWorkerName(w Worker) WorkerName {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return WorkerName(t.Name())
}

// MessageSink is one participant's outbound delivery channel.
//
// Consume must never block: the chat room calls it while holding its
// membership lock. Implementations buffer or drop; a non-nil error means
// the message was not delivered and the room will simply move on.
type MessageSink interface {
	Consume(m domain.Message) error
}
