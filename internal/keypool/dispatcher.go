// Package keypool spreads generation calls over a pool of interchangeable
// provider api keys and fails over when a key runs out of quota or is
// rejected.
package keypool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Skotchmaster/video_catalog/internal/logging"
)

const (
	defaultTimeout = 20 * time.Second
	alertTimeout   = 5 * time.Second
)

// Client is one provider connection authenticated with a single key.
type Client interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	Close() error
}

// ClientFactory builds a Client for key.
type ClientFactory interface {
	NewClient(ctx context.Context, key string) (Client, error)
}

type ClientFactoryFunc func(ctx context.Context, key string) (Client, error)

func (f ClientFactoryFunc) NewClient(ctx context.Context, key string) (Client, error) {
	return f(ctx, key)
}

// Alerter delivers an operational message out of band.
type Alerter interface {
	Alert(ctx context.Context, message string) error
}

type Options struct {
	Model         string
	FallbackModel string
	Timeout       time.Duration
	Alerter       Alerter
}

type Result struct {
	Text     string
	Model    string
	KeyIndex int
}

// Dispatcher owns the key pool and the rotation cursor shared by every
// request in the process.
//
// The cursor is advanced with compare-and-swap. Two requests failing on the
// same key at the same time advance it only once, and a request may read a
// key another request has just given up on. Either way a single call still
// makes at most len(keys) attempts.
type Dispatcher struct {
	keys    []string
	cursor  atomic.Int64
	factory ClientFactory

	model    string
	fallback string
	timeout  time.Duration
	alerter  Alerter
}

func New(keys []string, factory ClientFactory, opts Options) (*Dispatcher, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	if factory == nil {
		return nil, errors.New("keypool: nil client factory")
	}
	if opts.Model == "" {
		return nil, errors.New("keypool: model is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.FallbackModel == opts.Model {
		opts.FallbackModel = ""
	}

	return &Dispatcher{
		keys:     append([]string(nil), keys...),
		factory:  factory,
		model:    opts.Model,
		fallback: opts.FallbackModel,
		timeout:  opts.Timeout,
		alerter:  opts.Alerter,
	}, nil
}

// Cursor is the index of the key the next call starts with.
func (d *Dispatcher) Cursor() int {
	return int(d.cursor.Load())
}

func (d *Dispatcher) Size() int {
	return len(d.keys)
}

// Generate runs prompt against the pool. The call starts at the current
// cursor and stays there on success. Quota and permission failures move to
// the next key until every key has been tried once. Other failures get one
// try on the fallback model under the same key and are then returned
// without rotating.
func (d *Dispatcher) Generate(ctx context.Context, prompt string) (*Result, error) {
	l := logging.FromContext(ctx).With("svc", "keypool.generate")
	n := int64(len(d.keys))

	var lastErr error
	for attempts := int64(0); attempts < n; attempts++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		idx := d.cursor.Load() % n
		text, model, err := d.attempt(ctx, idx, prompt)
		if err == nil {
			l.Debugw("generate_success", "key_index", idx, "model", model, "attempts", attempts+1)
			return &Result{Text: text, Model: model, KeyIndex: int(idx)}, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		kind := KindOf(err)
		if !kind.KeyRelated() {
			l.Warnw("generate_failed", "key_index", idx, "kind", kind.String(), "error", err)
			if kind == KindTransient {
				return nil, fmt.Errorf("%w: %v", ErrProviderTransient, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrProviderFatal, err)
		}

		lastErr = err
		next := (idx + 1) % n
		d.cursor.CompareAndSwap(idx, next)
		l.Warnw("key_rotated", "from", idx, "to", next, "kind", kind.String(), "attempt", attempts+1)
	}

	l.Errorw("keys_exhausted", "keys", n, "error", lastErr)
	d.alert(ctx, fmt.Sprintf("All %d Gemini API keys are exhausted. Last error: %v", n, lastErr))
	return nil, fmt.Errorf("%w: %v", ErrAllKeysExhausted, lastErr)
}

// attempt calls the primary model with keys[idx] and, when that fails for a
// reason unrelated to the key, the fallback model with the same key.
func (d *Dispatcher) attempt(ctx context.Context, idx int64, prompt string) (string, string, error) {
	text, err := d.call(ctx, d.keys[idx], d.model, prompt)
	if err == nil {
		return text, d.model, nil
	}
	if KindOf(err).KeyRelated() || d.fallback == "" {
		return "", d.model, err
	}

	logging.FromContext(ctx).Infow("fallback_model", "key_index", idx, "model", d.fallback, "reason", err)
	text, ferr := d.call(ctx, d.keys[idx], d.fallback, prompt)
	if ferr != nil {
		return "", d.fallback, ferr
	}
	return text, d.fallback, nil
}

func (d *Dispatcher) call(ctx context.Context, key, model, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	client, err := d.factory.NewClient(callCtx, key)
	if err != nil {
		return "", err
	}
	defer client.Close()

	text, err := client.Generate(callCtx, model, prompt)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", NewError(KindTransient, fmt.Errorf("attempt timed out after %s: %w", d.timeout, err))
		}
		return "", err
	}
	return text, nil
}

func (d *Dispatcher) alert(ctx context.Context, msg string) {
	if d.alerter == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()
	if err := d.alerter.Alert(actx, msg); err != nil {
		logging.FromContext(ctx).Errorw("alert_failed", "error", err)
	}
}
