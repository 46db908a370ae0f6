package listener

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/driver/drivertest"
	"github.com/v0xg/pagecapture/internal/log"
)

// journal collects hook names from several observers in call order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type recorder struct {
	NopObserver
	name string
	j    *journal
	errs []error
}

func (r *recorder) rec(hook string) { r.j.add(r.name + ":" + hook) }

func (r *recorder) BeforeFindElement(driver.Driver, driver.By) { r.rec("BeforeFindElement") }
func (r *recorder) AfterFindElement(driver.Driver, driver.By, driver.Element) {
	r.rec("AfterFindElement")
}
func (r *recorder) BeforeClick(driver.Element) { r.rec("BeforeClick") }
func (r *recorder) AfterClick(driver.Element)  { r.rec("AfterClick") }
func (r *recorder) BeforeNavigate(_ driver.Driver, method string, args []string) {
	r.rec("BeforeNavigate " + method + " " + strings.Join(args, ","))
}
func (r *recorder) AfterNavigate(_ driver.Driver, method string, _ []string) {
	r.rec("AfterNavigate " + method)
}
func (r *recorder) BeforeExecuteAsyncScript(driver.Driver, string, []any) {
	r.rec("BeforeExecuteAsyncScript")
}
func (r *recorder) AfterExecuteAsyncScript(_ driver.Driver, _ string, _ []any, res any) {
	r.rec(fmt.Sprintf("AfterExecuteAsyncScript %v", res))
}
func (r *recorder) BeforeAnyElementCall(_ driver.Element, method string, _ []any) {
	r.rec("BeforeAnyElementCall " + method)
}
func (r *recorder) AfterAnyElementCall(_ driver.Element, method string, _ []any, _ any) {
	r.rec("AfterAnyElementCall " + method)
}
func (r *recorder) OnError(_ any, method string, _ []any, err error) {
	r.rec("OnError " + method)
	r.errs = append(r.errs, err)
}

func newSubmit(j *journal) *drivertest.Element {
	el := drivertest.NewElement(driver.ByCSS("#submit"))
	el.OnClick = func() { j.add("click") }
	return el
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	j := &journal{}
	raw := drivertest.New().Add(newSubmit(j))
	d := Decorate(raw, log.NewNullLogger(),
		&recorder{name: "a", j: j},
		&recorder{name: "b", j: j},
	)

	el, err := d.FindElement(driver.ByCSS("#submit"))
	require.NoError(t, err)
	require.NoError(t, el.Click())

	assert.Equal(t, []string{
		"a:BeforeFindElement",
		"b:BeforeFindElement",
		"b:AfterFindElement",
		"a:AfterFindElement",
		"a:BeforeClick",
		"b:BeforeClick",
		"click",
		"b:AfterClick",
		"a:AfterClick",
	}, j.all())
}

func TestChainAsyncScript(t *testing.T) {
	t.Parallel()

	j := &journal{}
	raw := drivertest.New()
	raw.ScriptFunc = func(script string, args ...any) (any, error) {
		j.add("script")
		return len(args), nil
	}
	d := Decorate(raw, log.NewNullLogger(),
		&recorder{name: "a", j: j},
		&recorder{name: "b", j: j},
	)

	res, err := d.ExecuteAsyncScript("arguments[arguments.length - 1](1)", "x", "y")
	require.NoError(t, err)
	assert.Equal(t, 2, res)
	assert.Equal(t, []string{
		"a:BeforeExecuteAsyncScript",
		"b:BeforeExecuteAsyncScript",
		"script",
		"b:AfterExecuteAsyncScript 2",
		"a:AfterExecuteAsyncScript 2",
	}, j.all())
}

func TestChainAsyncScriptError(t *testing.T) {
	t.Parallel()

	j := &journal{}
	boom := errors.New("script timeout")
	raw := drivertest.New()
	raw.ScriptFunc = func(string, ...any) (any, error) { return nil, boom }
	a := &recorder{name: "a", j: j}
	d := Decorate(raw, log.NewNullLogger(), a)

	_, err := d.ExecuteAsyncScript("return new Promise(() => {})")
	assert.Same(t, boom, err)
	assert.Equal(t, []string{
		"a:BeforeExecuteAsyncScript",
		"a:OnError ExecuteAsyncScript",
	}, j.all())
	assert.Equal(t, []error{boom}, a.errs)
}

func TestChainOnError(t *testing.T) {
	t.Parallel()

	j := &journal{}
	boom := errors.New("element is not clickable")
	submit := newSubmit(j)
	submit.ClickErr = boom
	a, b := &recorder{name: "a", j: j}, &recorder{name: "b", j: j}
	d := Decorate(drivertest.New().Add(submit), log.NewNullLogger(), a, b)

	el, err := d.FindElement(driver.ByCSS("#submit"))
	require.NoError(t, err)

	err = el.Click()
	assert.Same(t, boom, err)
	assert.Equal(t, []string{
		"a:BeforeFindElement",
		"b:BeforeFindElement",
		"b:AfterFindElement",
		"a:AfterFindElement",
		"a:BeforeClick",
		"b:BeforeClick",
		"click",
		"b:OnError Click",
		"a:OnError Click",
	}, j.all())
	assert.Equal(t, []error{boom}, a.errs)
	assert.Equal(t, []error{boom}, b.errs)
}

func TestChainFindElementNotFound(t *testing.T) {
	t.Parallel()

	j := &journal{}
	d := Decorate(drivertest.New(), log.NewNullLogger(), &recorder{name: "a", j: j})

	el, err := d.FindElement(driver.ByID("missing"))
	assert.Nil(t, el)
	assert.ErrorIs(t, err, driver.ErrNoSuchElement)
	assert.Equal(t, []string{"a:BeforeFindElement", "a:OnError FindElement"}, j.all())
}

type panicking struct {
	NopObserver
}

func (panicking) BeforeClick(driver.Element) { panic("observer bug") }

func TestChainRecoversObserverPanics(t *testing.T) {
	t.Parallel()

	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.TraceLevel)

	j := &journal{}
	submit := newSubmit(j)
	d := Decorate(drivertest.New().Add(submit), log.New(l), panicking{}, &recorder{name: "b", j: j})

	el, err := d.FindElement(driver.ByCSS("#submit"))
	require.NoError(t, err)
	require.NotPanics(t, func() { require.NoError(t, el.Click()) })

	assert.Equal(t, 1, submit.Clicks())
	assert.Contains(t, j.all(), "b:BeforeClick")
	assert.Contains(t, j.all(), "b:AfterClick")

	var traced bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.TraceLevel && strings.Contains(e.Message, "observer bug") {
			traced = true
		}
	}
	assert.True(t, traced, "panic should be trace logged")
}

func TestChainNavigation(t *testing.T) {
	t.Parallel()

	j := &journal{}
	raw := drivertest.New()
	d := Decorate(raw, log.NewNullLogger(), &recorder{name: "a", j: j})

	require.NoError(t, d.Get("https://the-internet.herokuapp.com/upload"))
	require.NoError(t, d.Back())

	assert.Equal(t, []string{
		"a:BeforeNavigate to https://the-internet.herokuapp.com/upload",
		"a:AfterNavigate to",
		"a:BeforeNavigate back ",
		"a:AfterNavigate back",
	}, j.all())
	assert.Equal(t, []string{"https://the-internet.herokuapp.com/upload"}, raw.Visited())
}

func TestChainAnyElementCall(t *testing.T) {
	t.Parallel()

	j := &journal{}
	heading := drivertest.NewElement(driver.ByTagName("h3"))
	heading.TextVal = "File Uploaded!"
	d := Decorate(drivertest.New().Add(heading), log.NewNullLogger(), &recorder{name: "a", j: j})

	el, err := d.FindElement(driver.ByTagName("h3"))
	require.NoError(t, err)
	text, err := el.Text()
	require.NoError(t, err)

	assert.Equal(t, "File Uploaded!", text)
	assert.Equal(t, []string{
		"a:BeforeFindElement",
		"a:AfterFindElement",
		"a:BeforeAnyElementCall Text",
		"a:AfterAnyElementCall Text",
	}, j.all())
}

func TestDecoratedElementUnwraps(t *testing.T) {
	t.Parallel()

	submit := drivertest.NewElement(driver.ByCSS("#submit"))
	d := Decorate(drivertest.New().Add(submit), log.NewNullLogger())

	el, err := d.FindElement(driver.ByCSS("#submit"))
	require.NoError(t, err)
	assert.NotSame(t, submit, el)
	assert.Equal(t, submit.String(), el.String())

	raw, err := driver.Unwrap(el)
	require.NoError(t, err)
	assert.Same(t, submit, raw)
}

func TestDecoratedScriptIsPassedUnchanged(t *testing.T) {
	t.Parallel()

	raw := drivertest.New()
	raw.ScriptFunc = func(string, ...any) (any, error) { return "ok", nil }
	d := Decorate(raw, log.NewNullLogger(), NewLoggingObserver(log.NewNullLogger(), nil))

	script := "return " + strings.Repeat("1 + ", 300) + "1"
	res, err := d.ExecuteScript(script)
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, []string{script}, raw.Scripts())
}
