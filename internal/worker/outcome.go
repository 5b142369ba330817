package worker

import (
	"fmt"
	"time"
)

// UserOutcome is the result of processing one user inside a run.
type UserOutcome int

const (
	UserRefreshed UserOutcome = iota
	UserSkippedDecrypt
	UserSkippedFetch
)

func (o UserOutcome) String() string {
	switch o {
	case UserRefreshed:
		return "success"
	case UserSkippedDecrypt:
		return "skip_decrypt"
	case UserSkippedFetch:
		return "skip_fetch"
	}
	return fmt.Sprintf("UserOutcome(%d)", int(o))
}

// RunStatus tells whether a run swept every user.
type RunStatus int

const (
	RunCompleted RunStatus = iota
	RunAborted
)

func (s RunStatus) String() string {
	if s == RunAborted {
		return "aborted"
	}
	return "completed"
}

// RunOutcome summarizes one aggregation run. Cause is set only when the run
// was aborted.
type RunOutcome struct {
	Status     RunStatus
	Cause      error
	Users      map[int64]UserOutcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Count returns how many users ended with o.
func (r RunOutcome) Count(o UserOutcome) int {
	n := 0
	for _, got := range r.Users {
		if got == o {
			n++
		}
	}
	return n
}
