package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nfnt/resize"
	"golang.org/x/sync/errgroup"

	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/event"
	"github.com/v0xg/pagecapture/internal/log"
)

const category = "capture"

// Options configures screenshot dispatch
type Options struct {
	MaxWidth    uint          // Screenshots wider than this are scaled down, 0 keeps the original size
	QueueSize   int           // Pending requests before new ones are dropped
	Workers     int           // Concurrent transmissions
	SendTimeout time.Duration // Upper bound for a single transmission
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 30 * time.Second
	}
	return o
}

// ScreenshotCapture implements Sink. Screenshots are taken synchronously so
// they show the page at the moment of the action; scaling and transmission
// run on background workers. It is safe for concurrent use.
type ScreenshotCapture struct {
	transport Transport
	log       *log.Logger
	opts      Options

	queue  chan *Request
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	seq    atomic.Int64
}

var _ Sink = (*ScreenshotCapture)(nil)

// New starts the dispatch workers. Call Close to drain and stop them.
func New(transport Transport, logger *log.Logger, opts Options) *ScreenshotCapture {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	c := &ScreenshotCapture{
		transport: transport,
		log:       logger,
		opts:      opts,
		queue:     make(chan *Request, opts.QueueSize),
		group:     &errgroup.Group{},
		ctx:       ctx,
		cancel:    cancel,
	}
	for i := 0; i < opts.Workers; i++ {
		c.group.Go(c.work)
	}
	return c
}

func (c *ScreenshotCapture) TakeAndSendScreenshot(ev event.ActionEvent, d driver.Driver) error {
	return c.take(ev, d, "")
}

func (c *ScreenshotCapture) TakeAndSendScreenshotWithError(ev event.ActionEvent, d driver.Driver, errText string) error {
	return c.take(ev, d, errText)
}

func (c *ScreenshotCapture) take(ev event.ActionEvent, d driver.Driver, errText string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	data, err := d.Screenshot()
	if err != nil {
		metricFailed.Inc()
		return fmt.Errorf("taking screenshot: %w", err)
	}
	url, err := d.CurrentURL()
	if err != nil {
		c.log.Tracef(category, "reading current url: %v", err)
	}

	req := &Request{
		Event: ev,
		URL:   url,
		PNG:   data,
		Error: errText,
		Seq:   c.seq.Add(1),
	}
	select {
	case c.queue <- req:
		metricQueued.Inc()
		return nil
	default:
		metricDropped.Inc()
		return ErrQueueFull
	}
}

func (c *ScreenshotCapture) work() error {
	for req := range c.queue {
		c.send(req)
	}
	return nil
}

func (c *ScreenshotCapture) send(req *Request) {
	shot, err := c.prepare(req)
	if err != nil {
		metricFailed.Inc()
		c.log.Warnf(category, "Screenshot not sent, see trace log for details")
		c.log.Tracef(category, "preparing screenshot %d: %v", req.Seq, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.opts.SendTimeout)
	defer cancel()
	if err := c.transport.Send(ctx, shot); err != nil {
		metricFailed.Inc()
		c.log.Warnf(category, "Screenshot not sent, see trace log for details")
		c.log.WithError(category, err).Tracef("sending screenshot %d (%s)", req.Seq, req.Event.Kind)
		return
	}
	metricSent.Inc()
	c.log.Debugf(category, "sent screenshot %d (%s %s)", req.Seq, req.Event.Kind, req.Event.Target)
}

func (c *ScreenshotCapture) prepare(req *Request) (Screenshot, error) {
	data, err := scaleDown(req.PNG, c.opts.MaxWidth)
	if err != nil {
		return Screenshot{}, err
	}
	return Screenshot{
		Command:          CommandFrom(req.Event),
		URL:              req.URL,
		ErrorMessage:     req.Error,
		ScreenshotBase64: base64.StdEncoding.EncodeToString(data),
		Seq:              req.Seq,
		PNG:              data,
	}, nil
}

// scaleDown resizes a PNG to maxWidth keeping its aspect ratio
func scaleDown(data []byte, maxWidth uint) ([]byte, error) {
	if maxWidth == 0 {
		return data, nil
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}
	if uint(cfg.Width) <= maxWidth {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}
	resized := resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return nil, fmt.Errorf("encoding screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Close stops accepting requests and waits for queued ones to be sent.
// When ctx expires first, in-flight transmissions are cancelled.
func (c *ScreenshotCapture) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- c.group.Wait() }()

	select {
	case err := <-done:
		c.cancel()
		return err
	case <-ctx.Done():
		c.cancel()
		<-done
		return ctx.Err()
	}
}
