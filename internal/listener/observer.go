// Package listener observes every driver and element action through an
// ordered chain of observers.
package listener

import (
	"github.com/v0xg/pagecapture/internal/driver"
)

// Observer receives notifications around driver and element actions and
// around test outcomes. Hooks are notifications only: they cannot stop the
// action, and a panicking hook is recovered by the chain.
type Observer interface {
	BeforeFindElement(d driver.Driver, by driver.By)
	AfterFindElement(d driver.Driver, by driver.By, el driver.Element)
	BeforeFindElements(d driver.Driver, by driver.By)
	AfterFindElements(d driver.Driver, by driver.By, els []driver.Element)

	// BeforeNavigate fires for Get ("to" with the url), Back, Forward and Refresh.
	BeforeNavigate(d driver.Driver, method string, args []string)
	AfterNavigate(d driver.Driver, method string, args []string)

	BeforeExecuteScript(d driver.Driver, script string, args []any)
	AfterExecuteScript(d driver.Driver, script string, args []any, result any)
	BeforeExecuteAsyncScript(d driver.Driver, script string, args []any)
	AfterExecuteAsyncScript(d driver.Driver, script string, args []any, result any)

	BeforeClick(el driver.Element)
	AfterClick(el driver.Element)
	BeforeSendKeys(el driver.Element, keys []string)
	AfterSendKeys(el driver.Element, keys []string)

	// BeforeAnyElementCall fires for element methods without a dedicated hook.
	BeforeAnyElementCall(el driver.Element, method string, args []any)
	AfterAnyElementCall(el driver.Element, method string, args []any, result any)

	// OnError replaces the After hook when the underlying call fails.
	OnError(target any, method string, args []any, err error)

	OnTestSuccess(r TestResult)
	OnTestFailure(r TestResult)
	OnTestSkipped(r TestResult)
}

// TestResult describes the outcome of one test.
type TestResult struct {
	Name string
	// Test is the value identifying the test; outcome captures only happen
	// when it implements UITest.
	Test any
	// Err is set for failures and, optionally, skips.
	Err error
}

// UITest marks tests that drive a browser.
type UITest interface {
	UITest()
}

// IsUITest reports whether test is marked as a browser test.
func IsUITest(test any) bool {
	_, ok := test.(UITest)
	return ok
}

// NopObserver implements every hook as a no-op. Embed it to implement
// only the hooks you need.
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) BeforeFindElement(driver.Driver, driver.By)                   {}
func (NopObserver) AfterFindElement(driver.Driver, driver.By, driver.Element)    {}
func (NopObserver) BeforeFindElements(driver.Driver, driver.By)                  {}
func (NopObserver) AfterFindElements(driver.Driver, driver.By, []driver.Element) {}
func (NopObserver) BeforeNavigate(driver.Driver, string, []string)               {}
func (NopObserver) AfterNavigate(driver.Driver, string, []string)                {}
func (NopObserver) BeforeExecuteScript(driver.Driver, string, []any)             {}
func (NopObserver) AfterExecuteScript(driver.Driver, string, []any, any)         {}
func (NopObserver) BeforeExecuteAsyncScript(driver.Driver, string, []any)        {}
func (NopObserver) AfterExecuteAsyncScript(driver.Driver, string, []any, any)    {}
func (NopObserver) BeforeClick(driver.Element)                                   {}
func (NopObserver) AfterClick(driver.Element)                                    {}
func (NopObserver) BeforeSendKeys(driver.Element, []string)                      {}
func (NopObserver) AfterSendKeys(driver.Element, []string)                       {}
func (NopObserver) BeforeAnyElementCall(driver.Element, string, []any)           {}
func (NopObserver) AfterAnyElementCall(driver.Element, string, []any, any)       {}
func (NopObserver) OnError(any, string, []any, error)                            {}
func (NopObserver) OnTestSuccess(TestResult)                                     {}
func (NopObserver) OnTestFailure(TestResult)                                     {}
func (NopObserver) OnTestSkipped(TestResult)                                     {}
