package listener

import (
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/v0xg/pagecapture/internal/capture"
	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/driver/drivertest"
	"github.com/v0xg/pagecapture/internal/event"
	"github.com/v0xg/pagecapture/internal/log"
)

// session stands in for the per-test holder of the decorated driver.
type session struct {
	d driver.Driver
}

func (s *session) Driver() driver.Driver { return s.d }

// decorate wires a capture observer the way a test session does: the
// observer reaches the browser through the decorated driver.
func decorate(raw driver.Driver, sink capture.Sink, logger *log.Logger, first ...Observer) (driver.Driver, *CaptureObserver) {
	s := &session{}
	c := NewCaptureObserver(sink, s, logger, DefaultInternalScripts())
	s.d = Decorate(raw, logger, append(first, c)...)
	return s.d, c
}

type uiTest struct{}

func (uiTest) UITest() {}

func TestCaptureObserverClick(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)

	j := &journal{}
	submit := newSubmit(j)
	raw := drivertest.New().Add(submit)
	d, _ := decorate(raw, sink, log.NewNullLogger(), &recorder{name: "logging", j: j})

	var got []event.ActionEvent
	sink.EXPECT().TakeAndSendScreenshot(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ev event.ActionEvent, _ driver.Driver) error {
			j.add("capture")
			got = append(got, ev)
			return nil
		}).Times(1)

	el, err := d.FindElement(driver.ByCSS("#submit"))
	require.NoError(t, err)
	require.NoError(t, el.Click())

	assert.Equal(t, []string{
		"logging:BeforeFindElement",
		"logging:AfterFindElement",
		"logging:BeforeClick",
		"capture",
		"click",
		"logging:AfterClick",
	}, j.all())

	require.Len(t, got, 1)
	assert.Equal(t, event.Click, got[0].Kind)
	assert.Equal(t, "css selector: #submit", got[0].Target)
	assert.Equal(t, capture.Command{Action: "click", Using: "css selector", Value: "#submit"}, capture.CommandFrom(got[0]))

	// The highlight scripts ran through the decorated driver without being
	// captured themselves.
	assert.Equal(t, []string{capture.HighlightScript, capture.UnhighlightScript}, raw.Scripts())
}

// journalHook copies log messages into a journal, interleaved with the
// other recorded calls.
type journalHook struct {
	j *journal
}

func (h journalHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h journalHook) Fire(e *logrus.Entry) error {
	h.j.add("log: " + e.Message)
	return nil
}

func TestCaptureObserverClickWithLogging(t *testing.T) {
	t.Parallel()

	j := &journal{}
	l, _ := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	l.AddHook(journalHook{j: j})
	logger := log.New(l)

	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	raw := drivertest.New().Add(newSubmit(j))
	d, _ := decorate(raw, sink, logger, NewLoggingObserver(logger, DefaultInternalScripts()))

	sink.EXPECT().TakeAndSendScreenshot(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ev event.ActionEvent, _ driver.Driver) error {
			j.add("capture " + ev.Target)
			return nil
		}).Times(1)

	el, err := d.FindElement(driver.ByCSS("#submit"))
	require.NoError(t, err)
	require.NoError(t, el.Click())

	assert.Equal(t, []string{
		"log: before find element by css selector: #submit",
		"log: after find element by css selector: #submit",
		"log: before click element css selector: #submit",
		"capture css selector: #submit",
		"click",
		"log: clicked element css selector: #submit",
	}, j.all())
	assert.Equal(t, []string{capture.HighlightScript, capture.UnhighlightScript}, raw.Scripts())
}

func TestCaptureObserverSinkFailureDoesNotAffectAction(t *testing.T) {
	t.Parallel()

	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.TraceLevel)
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)

	submit := drivertest.NewElement(driver.ByCSS("#submit"))
	d, _ := decorate(drivertest.New().Add(submit), sink, log.New(l))

	sink.EXPECT().TakeAndSendScreenshot(gomock.Any(), gomock.Any()).Return(capture.ErrQueueFull)

	el, err := d.FindElement(driver.ByCSS("#submit"))
	require.NoError(t, err)
	require.NoError(t, el.Click())
	assert.Equal(t, 1, submit.Clicks())

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "Screenshot not sent, see trace log for details" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestCaptureObserverSinkPanicIsContained(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	d, _ := decorate(drivertest.New(), sink, log.NewNullLogger())

	sink.EXPECT().TakeAndSendScreenshot(gomock.Any(), gomock.Any()).
		DoAndReturn(func(event.ActionEvent, driver.Driver) error { panic("transport exploded") })

	assert.NotPanics(t, func() {
		require.NoError(t, d.Get("https://example.com"))
	})
}

func TestCaptureObserverNavigation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	d, _ := decorate(drivertest.New(), sink, log.NewNullLogger())

	var got []event.ActionEvent
	sink.EXPECT().TakeAndSendScreenshot(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ev event.ActionEvent, _ driver.Driver) error {
			got = append(got, ev)
			return nil
		}).Times(2)

	require.NoError(t, d.Get("https://the-internet.herokuapp.com/upload"))
	require.NoError(t, d.Refresh())

	require.Len(t, got, 2)
	assert.Equal(t, capture.Command{Action: "nav", Using: "url", Value: "https://the-internet.herokuapp.com/upload"}, capture.CommandFrom(got[0]))
	assert.Equal(t, capture.Command{Action: "nav", Using: "refresh", Value: "n/a"}, capture.CommandFrom(got[1]))
}

func TestCaptureObserverScripts(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	raw := drivertest.New()
	d, _ := decorate(raw, sink, log.NewNullLogger())

	script := "document.querySelectorAll('input[type=file]').forEach(e => e.remove())"
	var got event.ActionEvent
	sink.EXPECT().TakeAndSendScreenshot(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ev event.ActionEvent, _ driver.Driver) error {
			got = ev
			return nil
		}).Times(1)

	_, err := d.ExecuteScript(script)
	require.NoError(t, err)
	_, err = d.ExecuteScript(capture.UserAgentScript)
	require.NoError(t, err)

	assert.Equal(t, event.ExecuteScript, got.Kind)
	assert.Equal(t, event.NotApplicable, got.Target)
	assert.Equal(t, 42, len([]rune(got.Payload)))
	assert.True(t, strings.HasSuffix(got.Payload, "..."))
	assert.Equal(t, []string{script, capture.UserAgentScript}, raw.Scripts())
}

func TestCaptureObserverAsyncScripts(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	raw := drivertest.New()
	d, _ := decorate(raw, sink, log.NewNullLogger())

	script := "const done = arguments[0]; setTimeout(() => done(document.title), 100)"
	var got event.ActionEvent
	sink.EXPECT().TakeAndSendScreenshot(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ev event.ActionEvent, _ driver.Driver) error {
			got = ev
			// Captured before the script runs.
			assert.Empty(t, raw.Scripts())
			return nil
		}).Times(1)

	_, err := d.ExecuteAsyncScript(script)
	require.NoError(t, err)
	_, err = d.ExecuteAsyncScript(capture.UserAgentScript)
	require.NoError(t, err)

	assert.Equal(t, event.ExecuteScript, got.Kind)
	assert.Equal(t, event.NotApplicable, got.Target)
	assert.Equal(t, 42, len([]rune(got.Payload)))
	assert.Equal(t, string([]rune(script)[:39])+"...", got.Payload)
	assert.Equal(t, []string{script, capture.UserAgentScript}, raw.Scripts())
}

func TestCaptureObserverSendKeys(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	input := drivertest.NewElement(driver.ByID("file-upload"))
	d, _ := decorate(drivertest.New().Add(input), sink, log.NewNullLogger())

	sink.EXPECT().TakeAndSendScreenshot(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ev event.ActionEvent, _ driver.Driver) error {
			assert.Equal(t, event.New(event.SendKeys, "", "").Target, ev.Target)
			assert.Equal(t, event.SendKeys, ev.Kind)
			// Keys were delivered before the capture.
			assert.Equal(t, []string{"/tmp/a.txt"}, input.Keys())
			return nil
		})

	el, err := d.FindElement(driver.ByID("file-upload"))
	require.NoError(t, err)
	require.NoError(t, el.SendKeys("/tmp/a.txt"))
}

func TestCaptureObserverOutcomes(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	_, c := decorate(drivertest.New(), sink, log.NewNullLogger())

	boom := errors.New("expected heading 'File Uploaded!'")
	gomock.InOrder(
		sink.EXPECT().TakeAndSendScreenshot(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ev event.ActionEvent, _ driver.Driver) error {
				assert.Equal(t, event.Pass, ev.Kind)
				return nil
			}),
		sink.EXPECT().TakeAndSendScreenshotWithError(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ev event.ActionEvent, _ driver.Driver, errText string) error {
				assert.Equal(t, event.Fail, ev.Kind)
				assert.True(t, strings.HasPrefix(errText, boom.Error()+"\n"))
				return nil
			}),
		sink.EXPECT().TakeAndSendScreenshot(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ev event.ActionEvent, _ driver.Driver) error {
				assert.Equal(t, event.Skip, ev.Kind)
				return nil
			}),
	)

	c.OnTestSuccess(TestResult{Name: "TestUpload", Test: uiTest{}})
	c.OnTestFailure(TestResult{Name: "TestUpload", Test: uiTest{}, Err: boom})
	c.OnTestSkipped(TestResult{Name: "TestUpload", Test: uiTest{}})

	// Plain tests never reach the sink.
	c.OnTestSuccess(TestResult{Name: "TestPlain", Test: struct{}{}})
	c.OnTestFailure(TestResult{Name: "TestPlain", Err: boom})
}

func TestCaptureObserverNilSink(t *testing.T) {
	t.Parallel()

	submit := drivertest.NewElement(driver.ByCSS("#submit"))
	raw := drivertest.New().Add(submit)
	d, c := decorate(raw, nil, log.NewNullLogger())

	el, err := d.FindElement(driver.ByCSS("#submit"))
	require.NoError(t, err)
	require.NoError(t, el.Click())
	c.OnTestFailure(TestResult{Test: uiTest{}, Err: errors.New("x")})

	assert.Empty(t, raw.Scripts())
	assert.Equal(t, 1, submit.Clicks())
}

func TestErrorText(t *testing.T) {
	t.Parallel()

	text := ErrorText(errors.New("plain"))
	assert.True(t, strings.HasPrefix(text, "plain\n"))
	assert.Contains(t, text, "ErrorText")

	wrapped := pkgerrors.Wrap(pkgerrors.New("root cause"), "uploading")
	text = ErrorText(wrapped)
	assert.True(t, strings.HasPrefix(text, "uploading: root cause\n"))
	assert.Contains(t, text, "TestErrorText")
}
