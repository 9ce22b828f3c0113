// Package httpx builds the retrying HTTP clients used for every outbound call.
package httpx

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/soyeahso/docent/internal/logging"
)

// Options configures a retrying client.
type Options struct {
	Timeout  time.Duration // per attempt; zero means no timeout
	RetryMax int           // retries after the first attempt
	WaitMin  time.Duration
	WaitMax  time.Duration
	Log      *logging.Logger
}

// NewClient returns a standard *http.Client whose transport retries
// connection errors and 429/5xx responses. After the last attempt the final
// response is handed back unchanged so callers can inspect its status.
func NewClient(opts Options) *http.Client {
	rc := NewRetryable(opts)
	return rc.StandardClient()
}

// NewRetryable returns the underlying retryablehttp client for callers that
// want to build retryablehttp requests directly.
func NewRetryable(opts Options) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	if opts.WaitMin > 0 {
		rc.RetryWaitMin = opts.WaitMin
	}
	if opts.WaitMax > 0 {
		rc.RetryWaitMax = opts.WaitMax
	}
	rc.HTTPClient.Timeout = opts.Timeout
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	if opts.Log != nil {
		rc.Logger = leveled{log: opts.Log.Sub("http")}
	}
	return rc
}

// leveled adapts logging.Logger to retryablehttp.LeveledLogger.
type leveled struct {
	log *logging.Logger
}

func (l leveled) Error(msg string, kv ...any) { l.fields(l.log.Error(), kv).Msg(msg) }
func (l leveled) Warn(msg string, kv ...any)  { l.fields(l.log.Warn(), kv).Msg(msg) }
func (l leveled) Info(msg string, kv ...any)  { l.fields(l.log.Debug(), kv).Msg(msg) }
func (l leveled) Debug(msg string, kv ...any) { l.fields(l.log.Debug(), kv).Msg(msg) }

func (leveled) fields(ev *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		ev = ev.Interface(key, kv[i+1])
	}
	return ev
}
