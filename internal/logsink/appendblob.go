// Package logsink ships JSON log lines to an Azure append blob in small batches.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type Config struct {
	AccountName string
	AccountKey  string
	Container   string
	BlobName    string        // defaults to YYYY/MM/DD/<hostname>.jsonl
	FlushEvery  time.Duration // default 2s
	Level       slog.Leveler
}

// maxBatch stays well under the 4 MiB append block limit.
const maxBatch = 1 << 20

type appender interface {
	AppendBlock(ctx context.Context, body io.ReadSeekCloser, o *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error)
}

type Handler struct {
	cfg     Config
	ab      appender
	ch      chan []byte
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	ticker  *time.Ticker
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

func New(ctx context.Context, cfg Config) (*Handler, error) {
	if cfg.AccountName == "" || cfg.AccountKey == "" || cfg.Container == "" {
		return nil, errors.New("AccountName, AccountKey and Container are required")
	}
	if cfg.BlobName == "" {
		host, _ := os.Hostname()
		if host == "" {
			host = "recipefinder"
		}
		cfg.BlobName = BlobNameFor(time.Now(), host)
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 2 * time.Second
	}
	if cfg.Level == nil {
		cfg.Level = slog.LevelInfo
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, err
	}
	// BlobName carries the date folders, so only the container is escaped
	blobURL := "https://" + cfg.AccountName + ".blob.core.windows.net/" +
		url.PathEscape(cfg.Container) + "/" + cfg.BlobName

	ab, err := appendblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
	if err != nil {
		return nil, err
	}
	if _, err := ab.Create(ctx, nil); err != nil && !bloberror.HasCode(err, bloberror.BlobAlreadyExists) {
		return nil, err
	}

	return newHandler(ctx, cfg, ab), nil
}

func newHandler(ctx context.Context, cfg Config, ab appender) *Handler {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handler{
		cfg:    cfg,
		ab:     ab,
		ch:     make(chan []byte, 1024),
		ctx:    ctx,
		cancel: cancel,
		ticker: time.NewTicker(cfg.FlushEvery),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

// Dropped counts lines discarded because the buffer was full.
func (h *Handler) Dropped() int64 { return h.dropped.Load() }

// Close flushes what is buffered and stops the background writer.
func (h *Handler) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.ch)
	h.mu.Unlock()

	h.wg.Wait()
	h.cancel()
	h.ticker.Stop()
	if n := h.dropped.Load(); n > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "logsink: dropped %d log lines\n", n)
	}
	return nil
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.Level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	line, err := encodeRecord(r)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}
	select {
	case h.ch <- line:
		return nil
	default:
		// never block a request on log shipping
		h.dropped.Add(1)
		return nil
	}
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: h, attrs: attrs}
}

func (h *Handler) WithGroup(string) slog.Handler { return h }

// encodeRecord renders one JSON line. Groups are flattened one level deep.
func encodeRecord(r slog.Record) ([]byte, error) {
	ev := make(map[string]any, r.NumAttrs()+3)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ev["time"] = ts.UTC().Format(time.RFC3339Nano)
	ev["level"] = r.Level.String()
	ev["msg"] = r.Message

	r.Attrs(func(a slog.Attr) bool {
		a.Value = a.Value.Resolve()
		if a.Value.Kind() == slog.KindGroup {
			m := map[string]any{}
			for _, aa := range a.Value.Group() {
				aa.Value = aa.Value.Resolve()
				m[aa.Key] = attrValue(aa.Value)
			}
			ev[a.Key] = m
		} else {
			ev[a.Key] = attrValue(a.Value)
		}
		return true
	})

	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// errors marshal to {} otherwise
func attrValue(v slog.Value) any {
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return v.Any()
}

func (h *Handler) loop() {
	defer h.wg.Done()
	var buf []byte
	flush := func() {
		if len(buf) == 0 {
			return
		}
		if _, err := h.ab.AppendBlock(h.ctx, readSeekNopCloser{bytes.NewReader(buf)}, nil); err != nil {
			// the default logger may be us; write straight to stderr
			_, _ = os.Stderr.WriteString("logsink: append failed: " + err.Error() + "\n")
		}
		buf = nil
	}

	for {
		select {
		case line, ok := <-h.ch:
			if !ok {
				flush()
				return
			}
			buf = append(buf, line...)
			if len(buf) >= maxBatch {
				flush()
			}
		case <-h.ticker.C:
			flush()
		}
	}
}

type withAttrs struct {
	*Handler
	attrs []slog.Attr
}

func (w *withAttrs) Handle(ctx context.Context, r slog.Record) error {
	r2 := r.Clone()
	r2.AddAttrs(w.attrs...)
	return w.Handler.Handle(ctx, r2)
}

func (w *withAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: w.Handler, attrs: append(append([]slog.Attr{}, w.attrs...), attrs...)}
}

type readSeekNopCloser struct{ io.ReadSeeker }

func (r readSeekNopCloser) Close() error { return nil }
