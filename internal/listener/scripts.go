package listener

import "github.com/v0xg/pagecapture/internal/capture"

// InternalScripts lists scripts run by the framework itself. Observers
// skip them so that, for example, highlighting an element before a click
// capture does not trigger a capture of its own.
//
// Matching is exact string equality: reformatting one of the scripts
// without updating this list silently disables the suppression.
type InternalScripts []string

// DefaultInternalScripts returns the scripts run by the capture pipeline.
func DefaultInternalScripts() InternalScripts {
	return InternalScripts{
		capture.HighlightScript,
		capture.UnhighlightScript,
		capture.UserAgentScript,
	}
}

func (s InternalScripts) Contains(script string) bool {
	for _, known := range s {
		if known == script {
			return true
		}
	}
	return false
}
