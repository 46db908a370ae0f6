package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/driver/drivertest"
	"github.com/v0xg/pagecapture/internal/log"
	"github.com/v0xg/pagecapture/internal/uitest"
)

func TestParseStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    step
		wantErr string
	}{
		{raw: "click:#submit", want: step{kind: "click", target: "#submit"}},
		{raw: "type:#q=a=b", want: step{kind: "type", target: "#q", value: "a=b"}},
		{raw: "upload:#file-upload=upload.txt", want: step{kind: "upload", target: "#file-upload", value: "upload.txt"}},
		{raw: "script:() => document.title", want: step{kind: "script", target: "() => document.title"}},
		{raw: "click", wantErr: "expected <action>:<argument>"},
		{raw: "type:#q", wantErr: "expected type:<css>=<value>"},
		{raw: "hover:#menu", wantErr: `unknown step action "hover"`},
	}
	for _, tt := range tests {
		got, err := parseStep(tt.raw)
		if tt.wantErr != "" {
			assert.ErrorContains(t, err, tt.wantErr, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestRunSteps(t *testing.T) {
	t.Parallel()

	submit := drivertest.NewElement(driver.ByCSS("#submit"))
	query := drivertest.NewElement(driver.ByCSS("#q"))
	result := drivertest.NewElement(driver.ByCSS("#result"))
	raw := drivertest.New().Add(submit, query, result)

	s, err := uitest.NewSession(context.Background(), uitest.Options{Logger: log.NewNullLogger(), Driver: raw})
	require.NoError(t, err)
	defer s.Close(context.Background())

	parsed, err := parseSteps([]string{"type:#q=golang", "click:#submit", "wait:#result", "script:() => 1"})
	require.NoError(t, err)
	require.NoError(t, runSteps(s, "https://example.com", parsed))

	assert.Equal(t, []string{"https://example.com"}, raw.Visited())
	assert.Equal(t, []string{"golang"}, query.Keys())
	assert.Equal(t, 1, submit.Clicks())
	assert.Equal(t, 1, raw.Finds(driver.ByCSS("#result")))
	assert.Contains(t, raw.Scripts(), "() => 1")
}

func TestRunStepsReportsFailingStep(t *testing.T) {
	t.Parallel()

	s, err := uitest.NewSession(context.Background(), uitest.Options{Logger: log.NewNullLogger(), Driver: drivertest.New()})
	require.NoError(t, err)
	defer s.Close(context.Background())

	parsed, err := parseSteps([]string{"click:#missing"})
	require.NoError(t, err)
	err = runSteps(s, "https://example.com", parsed)
	assert.ErrorIs(t, err, driver.ErrNoSuchElement)
	assert.ErrorContains(t, err, "step 1 (click #missing)")
}
