package verifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JihedeMedini/rfid-verify/pkg/types"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name         string
		current      types.VerificationStatus
		event        Event
		allSatisfied bool
		want         types.VerificationStatus
	}{
		{"first scan starts progress", types.StatusNotStarted, EventScanAccepted, false, types.StatusInProgress},
		{"scan keeps progress", types.StatusInProgress, EventScanAccepted, false, types.StatusInProgress},
		{"last scan completes", types.StatusInProgress, EventScanAccepted, true, types.StatusComplete},
		{"single-line order completes on first scan", types.StatusNotStarted, EventScanAccepted, true, types.StatusComplete},
		{"submit satisfied commits complete", types.StatusInProgress, EventSubmit, true, types.StatusComplete},
		{"submit unsatisfied fails", types.StatusInProgress, EventSubmit, false, types.StatusFailed},
		{"submit untouched order fails", types.StatusNotStarted, EventSubmit, false, types.StatusFailed},
		{"resubmit failed stays failed", types.StatusFailed, EventSubmit, false, types.StatusFailed},
		{"resubmit complete stays complete", types.StatusComplete, EventSubmit, true, types.StatusComplete},
		{"reset from complete", types.StatusComplete, EventReset, false, types.StatusNotStarted},
		{"reset from failed", types.StatusFailed, EventReset, false, types.StatusNotStarted},
		{"reset from in progress", types.StatusInProgress, EventReset, false, types.StatusNotStarted},
		{"reset from not started", types.StatusNotStarted, EventReset, false, types.StatusNotStarted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextStatus(tt.current, tt.event, tt.allSatisfied)
			assert.Equal(t, tt.want, got)
		})
	}
}
