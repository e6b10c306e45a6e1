// Package notice carries transient user notifications raised by list pages.
package notice

import (
	"errors"
	"strings"
	"sync"

	"github.com/louisbranch/boardkit/internal/listview/record"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

// Kind classifies notice presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notice is one transient message.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Sink receives notices.
type Sink interface {
	Notify(Notice)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notice)

// Notify implements Sink.
func (fn SinkFunc) Notify(n Notice) { fn(n) }

// Discard drops every notice.
var Discard Sink = SinkFunc(func(Notice) {})

// Localizer renders a catalog key, returning fallback for unknown keys.
type Localizer interface {
	Text(key string, fallback string) string
}

// Queue is a FIFO sink. It is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify appends n when it is valid.
func (q *Queue) Notify(n Notice) {
	normalized, ok := normalize(n)
	if !ok {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notices = append(q.notices, normalized)
}

// Drain returns and clears every queued notice in arrival order.
func (q *Queue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notices
	q.notices = nil
	return out
}

// Len returns the number of queued notices.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.notices)
}

// Success builds a localized success notice.
func Success(key string, l Localizer) Notice {
	return Notice{Kind: KindSuccess, Key: key, Message: text(l, key, key)}
}

var fallbackText = map[apperrors.Kind]string{
	apperrors.KindLoadFailure:       "Could not load records.",
	apperrors.KindMutationFailure:   "The change could not be saved.",
	apperrors.KindValidationFailure: "Please fill in the required fields.",
	apperrors.KindUnauthorized:      "Your session has expired.",
	apperrors.KindNotFound:          "That record no longer exists.",
	apperrors.KindUnavailable:       "The service is temporarily unavailable.",
	apperrors.KindInvalidInput:      "The request was rejected.",
	apperrors.KindUnknown:           "Something went wrong.",
}

// FromError builds the notice for a failure: the server-provided message
// when one exists, otherwise the localized fallback for the failure kind.
// A discarded stale load becomes an info notice.
func FromError(err error, l Localizer) Notice {
	if err == nil {
		return Notice{}
	}
	if errors.Is(err, record.ErrStaleLoad) {
		return Notice{Kind: KindInfo, Key: "notice.stale_load", Message: text(l, "notice.stale_load", "A newer change arrived while loading.")}
	}

	kind := apperrors.KindOf(err)
	key := "notice." + string(kind)
	n := Notice{Kind: KindError, Key: key, Field: apperrors.FieldOf(err)}
	if kind == apperrors.KindValidationFailure {
		n.Kind = KindWarning
		if fieldKey := apperrors.LocalizationKey(err); fieldKey != "" {
			n.Key = fieldKey
		}
	}

	if msg := apperrors.Message(err); msg != "" {
		n.Message = msg
		if kind == apperrors.KindValidationFailure {
			n.Message = text(l, n.Key, msg)
		}
		return n
	}
	n.Message = text(l, key, fallbackText[kind])
	return n
}

func text(l Localizer, key, fallback string) string {
	if l == nil {
		return fallback
	}
	return l.Text(key, fallback)
}

func normalize(n Notice) (Notice, bool) {
	n.Message = strings.TrimSpace(n.Message)
	n.Key = strings.TrimSpace(n.Key)
	if n.Message == "" && n.Key == "" {
		return Notice{}, false
	}
	switch n.Kind {
	case KindSuccess, KindInfo, KindWarning, KindError:
	default:
		n.Kind = KindInfo
	}
	return n, true
}
