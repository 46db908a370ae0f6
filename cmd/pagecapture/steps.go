package main

import (
	"fmt"
	"strings"

	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/page"
)

// step is one parsed --step value.
type step struct {
	kind   string
	target string
	value  string
}

func parseSteps(raw []string) ([]step, error) {
	out := make([]step, 0, len(raw))
	for _, r := range raw {
		st, err := parseStep(r)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func parseStep(raw string) (step, error) {
	kind, rest, ok := strings.Cut(raw, ":")
	if !ok || rest == "" {
		return step{}, fmt.Errorf("invalid step %q, expected <action>:<argument>", raw)
	}
	switch kind {
	case "click", "wait", "script":
		return step{kind: kind, target: rest}, nil
	case "type", "upload":
		target, value, ok := strings.Cut(rest, "=")
		if !ok || target == "" {
			return step{}, fmt.Errorf("invalid step %q, expected %s:<css>=<value>", raw, kind)
		}
		return step{kind: kind, target: target, value: value}, nil
	}
	return step{}, fmt.Errorf("unknown step action %q", kind)
}

// run performs the step and returns the page later steps act on.
func (st step) run(s page.Session, p *page.Generic) (*page.Generic, error) {
	by := driver.ByCSS(st.target)
	switch st.kind {
	case "click":
		return p, p.Element(by).Click()
	case "type":
		return p, page.NewTextInput(p.Element(by)).SetText(st.value)
	case "upload":
		return p, page.NewFileInput(p.Element(by)).SetFileToUpload(st.value)
	case "wait":
		return page.NewGeneric(s, by).GetWithTimeout(p.Wait().Timeout)
	case "script":
		_, err := p.ExecuteJS(st.target)
		return p, err
	}
	return p, fmt.Errorf("unknown step action %q", st.kind)
}
