package listener

import (
	"regexp"

	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/event"
	"github.com/v0xg/pagecapture/internal/log"
)

// Maximum script lengths written to the log.
const (
	beforeScriptMaxLength = 512
	afterScriptMaxLength  = 128
)

var locatorPattern = regexp.MustCompile(`->\s(.*)\]`)

// LocatorFromElement extracts the locator from an element's string form,
// e.g. "css selector: #bar" from "[foo -> css selector: #bar]". The full
// string is returned when it has no "->" marker.
func LocatorFromElement(el driver.Element) string {
	return locatorFrom(el.String())
}

func locatorFrom(s string) string {
	m := locatorPattern.FindStringSubmatch(s)
	if len(m) < 2 {
		return s
	}
	return m[1]
}

// LoggingObserver writes one debug line per hook.
type LoggingObserver struct {
	NopObserver
	log      *log.Logger
	internal InternalScripts
}

var _ Observer = (*LoggingObserver)(nil)

func NewLoggingObserver(logger *log.Logger, internal InternalScripts) *LoggingObserver {
	return &LoggingObserver{log: logger, internal: internal}
}

func (l *LoggingObserver) OnError(target any, method string, _ []any, err error) {
	l.log.Tracef(category, "%s on %v failed: %v", method, target, err)
}

func (l *LoggingObserver) BeforeFindElement(_ driver.Driver, by driver.By) {
	l.log.Debugf(category, "before find element by %s", by)
}

func (l *LoggingObserver) AfterFindElement(_ driver.Driver, by driver.By, _ driver.Element) {
	l.log.Debugf(category, "after find element by %s", by)
}

func (l *LoggingObserver) BeforeFindElements(d driver.Driver, by driver.By) {
	l.BeforeFindElement(d, by)
}

func (l *LoggingObserver) AfterFindElements(_ driver.Driver, by driver.By, _ []driver.Element) {
	l.log.Debugf(category, "after find elements by %s", by)
}

func (l *LoggingObserver) BeforeNavigate(_ driver.Driver, method string, args []string) {
	l.log.Debugf(category, "before navigate %s %v", method, args)
}

func (l *LoggingObserver) AfterNavigate(_ driver.Driver, method string, args []string) {
	l.log.Debugf(category, "navigated %s %v", method, args)
}

func (l *LoggingObserver) BeforeExecuteScript(_ driver.Driver, script string, _ []any) {
	if l.internal.Contains(script) {
		return
	}
	if l.log.DebugMode() {
		l.log.Debugf(category, "running script %s", event.Abbreviate(script, beforeScriptMaxLength))
	}
}

func (l *LoggingObserver) AfterExecuteScript(_ driver.Driver, script string, _ []any, _ any) {
	if l.internal.Contains(script) {
		return
	}
	if l.log.DebugMode() {
		l.log.Debugf(category, "ran script %s", event.Abbreviate(script, afterScriptMaxLength))
	}
}

func (l *LoggingObserver) BeforeExecuteAsyncScript(d driver.Driver, script string, args []any) {
	l.BeforeExecuteScript(d, script, args)
}

func (l *LoggingObserver) AfterExecuteAsyncScript(d driver.Driver, script string, args []any, result any) {
	l.AfterExecuteScript(d, script, args, result)
}

func (l *LoggingObserver) BeforeClick(el driver.Element) {
	if l.log.DebugMode() {
		l.log.Debugf(category, "before click element %s", LocatorFromElement(el))
	}
}

func (l *LoggingObserver) AfterClick(el driver.Element) {
	if l.log.DebugMode() {
		l.log.Debugf(category, "clicked element %s", LocatorFromElement(el))
	}
}

func (l *LoggingObserver) BeforeSendKeys(el driver.Element, _ []string) {
	if l.log.DebugMode() {
		l.log.Debugf(category, "before send keys to element %s", LocatorFromElement(el))
	}
}

func (l *LoggingObserver) AfterSendKeys(el driver.Element, _ []string) {
	if l.log.DebugMode() {
		l.log.Debugf(category, "after send keys to element %s", LocatorFromElement(el))
	}
}
