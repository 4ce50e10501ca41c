package echoapi

import (
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/parishdesk/parishdesk/core"
)

const contextToastsKey = "toasts"

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastInfo    ToastKind = "info"
	ToastWarning ToastKind = "warning"
	ToastError   ToastKind = "error"
)

// Toast is a transient notice the dashboard shows once.
type Toast struct {
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
}

// toastQueue collects the toasts raised while handling one request.
type toastQueue struct {
	mu     sync.Mutex
	toasts []Toast
}

var _ core.Notifier = (*toastQueue)(nil)

func (q *toastQueue) push(kind ToastKind, msg string) {
	if msg == "" {
		return
	}
	q.mu.Lock()
	q.toasts = append(q.toasts, Toast{Kind: kind, Message: msg})
	q.mu.Unlock()
}

func (q *toastQueue) Success(msg string) { q.push(ToastSuccess, msg) }
func (q *toastQueue) Info(msg string)    { q.push(ToastInfo, msg) }
func (q *toastQueue) Warning(msg string) { q.push(ToastWarning, msg) }
func (q *toastQueue) Error(msg string)   { q.push(ToastError, msg) }

// Drain returns the queued toasts and empties the queue.
func (q *toastQueue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	toasts := q.toasts
	q.toasts = nil
	if toasts == nil {
		toasts = []Toast{}
	}
	return toasts
}

func contextToasts(ctx echo.Context) *toastQueue {
	if q, ok := ctx.Get(contextToastsKey).(*toastQueue); ok {
		return q
	}
	q := new(toastQueue)
	ctx.Set(contextToastsKey, q)
	return q
}
