package reel

import (
	"fmt"

	"github.com/fpang/reel-studio/internal/store"
)

// Status is the result of Poll. Which fields are set depends on State:
//
//	started, in_progress: Message
//	completed:            Message, ArtifactPath
//	failed:               Message, Reason
//	unknown:              Message (retry later; nothing was persisted)
//
// Record is the persisted record as of this poll.
type Status struct {
	SessionID    string          `json:"sessionId"`
	State        store.State     `json:"state"`
	Message      string          `json:"message"`
	ArtifactPath string          `json:"artifactPath,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Record       store.JobRecord `json:"record"`
}

// Done reports whether polling can stop.
func (s Status) Done() bool { return s.State.IsTerminal() }

func statusOf(rec store.JobRecord) Status {
	st := Status{SessionID: rec.SessionID, State: rec.State, Record: rec}
	switch rec.State {
	case store.StateStarted:
		st.Message = "Video generation started"
	case store.StateInProgress:
		st.Message = "Video generation in progress"
	case store.StateCompleted:
		st.ArtifactPath = rec.ArtifactPath
		st.Message = fmt.Sprintf("Video ready: %s", rec.ArtifactPath)
	case store.StateFailed:
		st.Reason = rec.ErrorMessage
		st.Message = fmt.Sprintf("Video generation failed: %s", rec.ErrorMessage)
	}
	return st
}

func unknownStatus(rec store.JobRecord, detail string) Status {
	msg := "Provider status could not be read, poll again later"
	if detail != "" {
		msg = fmt.Sprintf("Provider returned unexpected status %q, poll again later", detail)
	}
	return Status{
		SessionID: rec.SessionID,
		State:     store.StateUnknown,
		Message:   msg,
		Record:    rec,
	}
}
