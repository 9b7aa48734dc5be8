package detour

import (
	"fmt"
	"strings"
)

// / Result code of detour operations. High bits carry the outcome,
// / low bits carry detail about failures and partial results.
type DtStatus uint32

// High level status.
const (
	DT_FAILURE     DtStatus = 1 << 31 // Operation failed.
	DT_SUCCESS     DtStatus = 1 << 30 // Operation succeed.
	DT_IN_PROGRESS DtStatus = 1 << 29 // Operation still in progress.
)

// Detail information for status.
const (
	DT_STATUS_DETAIL_MASK DtStatus = 0x0ffffff
	DT_WRONG_MAGIC        DtStatus = 1 << 0 // Input data is not recognized.
	DT_WRONG_VERSION      DtStatus = 1 << 1 // Input data is in wrong version.
	DT_OUT_OF_MEMORY      DtStatus = 1 << 2 // Operation ran out of memory.
	DT_INVALID_PARAM      DtStatus = 1 << 3 // An input parameter was invalid.
	DT_BUFFER_TOO_SMALL   DtStatus = 1 << 4 // Result buffer for the query was too small to store all results.
	DT_OUT_OF_NODES       DtStatus = 1 << 5 // Query ran out of nodes during search.
	DT_PARTIAL_RESULT     DtStatus = 1 << 6 // Query did not reach the end location, returning best guess.
	DT_ALREADY_OCCUPIED   DtStatus = 1 << 7 // A tile has already been assigned to the given x,y coordinate
)

func (s DtStatus) Succeed() bool { return s&DT_SUCCESS != 0 }
func (s DtStatus) Failed() bool { return s&DT_FAILURE != 0 }
func (s DtStatus) InProgress() bool { return s&DT_IN_PROGRESS != 0 }

// / Returns true if specific detail is set.
func (s DtStatus) Detail(detail DtStatus) bool {
	return s&detail != 0
}

func DtStatusSucceed(s DtStatus) bool { return s.Succeed() }
func DtStatusFailed(s DtStatus) bool { return s.Failed() }
func DtStatusInProgress(s DtStatus) bool { return s.InProgress() }
func DtStatusDetail(s, detail DtStatus) bool { return s.Detail(detail) }

var statusDetailNames = []struct {
	bit  DtStatus
	name string
}{
	{DT_WRONG_MAGIC, "wrong magic"},
	{DT_WRONG_VERSION, "wrong version"},
	{DT_OUT_OF_MEMORY, "out of memory"},
	{DT_INVALID_PARAM, "invalid param"},
	{DT_BUFFER_TOO_SMALL, "buffer too small"},
	{DT_OUT_OF_NODES, "out of nodes"},
	{DT_PARTIAL_RESULT, "partial result"},
	{DT_ALREADY_OCCUPIED, "already occupied"},
}

func (s DtStatus) String() string {
	var head string
	switch {
	case s.Failed():
		head = "failure"
	case s.InProgress():
		head = "in progress"
	case s.Succeed():
		head = "success"
	default:
		head = fmt.Sprintf("status(0x%x)", uint32(s))
	}
	var details []string
	for _, d := range statusDetailNames {
		if s&d.bit != 0 {
			details = append(details, d.name)
		}
	}
	if len(details) == 0 {
		return head
	}
	return head + " (" + strings.Join(details, ", ") + ")"
}

// / StatusError wraps a failed status so it can travel as an error.
type StatusError struct {
	Status DtStatus
}

func (e *StatusError) Error() string { return "detour: " + e.Status.String() }

// / Returns nil unless the status failed.
func (s DtStatus) Err() error {
	if !s.Failed() {
		return nil
	}
	return &StatusError{Status: s}
}
