package detour_crowd

import (
	"github.com/gorustyt/navbind/detour"
)

type DtPathQueueRef uint32

const DT_PATHQ_INVALID DtPathQueueRef = 0

const (
	dtPathQueueMaxQueue     = 8
	dtPathQueueMaxKeepAlive = 2 // in update ticks.
)

type pathQuery struct {
	ref DtPathQueueRef
	/// Path find start and end location.
	startPos, endPos [3]float32
	startRef, endRef detour.DtPolyRef
	/// Result.
	path []detour.DtPolyRef
	/// State.
	status    detour.DtStatus
	keepAlive int
	filter    *detour.DtQueryFilter
}

// / Queue of long path searches, advanced a bounded number of iterations per update.
type DtPathQueue struct {
	m_queue       [dtPathQueueMaxQueue]pathQuery
	m_nextHandle  DtPathQueueRef
	m_maxPathSize int32
	m_queueHead   int
	m_navquery    *detour.DtNavMeshQuery
}

func NewDtPathQueue(maxPathSize int32, maxSearchNodeCount int32, nav *detour.DtNavMesh) (*DtPathQueue, detour.DtStatus) {
	q, status := detour.NewDtNavMeshQuery(nav, maxSearchNodeCount)
	if status.Failed() {
		return nil, status
	}
	return &DtPathQueue{m_navquery: q, m_maxPathSize: maxPathSize, m_nextHandle: 1}, detour.DT_SUCCESS
}

func (d *DtPathQueue) GetNavQuery() *detour.DtNavMeshQuery { return d.m_navquery }

// / Spends up to maxIters search iterations on queued requests, round robin.
func (d *DtPathQueue) Update(maxIters int32) {
	// Update path request until there is nothing to update
	// or upto maxIters pathfinder iterations has been consumed.
	iterCount := maxIters

	for i := 0; i < dtPathQueueMaxQueue; i++ {
		q := &d.m_queue[d.m_queueHead%dtPathQueueMaxQueue]

		// Skip inactive requests.
		if q.ref == DT_PATHQ_INVALID {
			d.m_queueHead++
			continue
		}

		// Handle completed request.
		if q.status.Succeed() || q.status.Failed() {
			// If the path result has not been read in few frames, free the slot.
			q.keepAlive++
			if q.keepAlive > dtPathQueueMaxKeepAlive {
				q.ref = DT_PATHQ_INVALID
				q.status = 0
			}
			d.m_queueHead++
			continue
		}

		// Handle query start.
		if q.status == 0 {
			q.status = d.m_navquery.InitSlicedFindPath(q.startRef, q.endRef, q.startPos[:], q.endPos[:], q.filter, 0)
		}
		// Handle query in progress.
		if q.status.InProgress() {
			var iters int32
			iters, q.status = d.m_navquery.UpdateSlicedFindPath(iterCount)
			iterCount -= iters
		}
		if q.status.Succeed() {
			q.path, q.status = d.m_navquery.FinalizeSlicedFindPath(d.m_maxPathSize)
		}

		if iterCount <= 0 {
			break
		}
		d.m_queueHead++
	}
}

// / Queues a path search. Returns DT_PATHQ_INVALID when every slot is busy.
func (d *DtPathQueue) Request(startRef, endRef detour.DtPolyRef, startPos, endPos []float32,
	filter *detour.DtQueryFilter) DtPathQueueRef {
	// Find empty slot
	slot := -1
	for i := range d.m_queue {
		if d.m_queue[i].ref == DT_PATHQ_INVALID {
			slot = i
			break
		}
	}
	if slot == -1 {
		return DT_PATHQ_INVALID
	}

	ref := d.m_nextHandle
	d.m_nextHandle++
	if d.m_nextHandle == DT_PATHQ_INVALID {
		d.m_nextHandle++
	}

	q := &d.m_queue[slot]
	*q = pathQuery{ref: ref, startRef: startRef, endRef: endRef, filter: filter}
	copy(q.startPos[:], startPos)
	copy(q.endPos[:], endPos)
	return ref
}

func (d *DtPathQueue) GetRequestStatus(ref DtPathQueueRef) detour.DtStatus {
	for i := range d.m_queue {
		if d.m_queue[i].ref == ref {
			return d.m_queue[i].status
		}
	}
	return detour.DT_FAILURE
}

// / Returns the finished path for ref and frees the slot.
func (d *DtPathQueue) GetPathResult(ref DtPathQueueRef) ([]detour.DtPolyRef, detour.DtStatus) {
	for i := range d.m_queue {
		q := &d.m_queue[i]
		if q.ref != ref {
			continue
		}
		details := q.status & detour.DT_STATUS_DETAIL_MASK
		path := q.path
		// Free request for reuse.
		q.ref = DT_PATHQ_INVALID
		q.status = 0
		q.path = nil
		return path, details | detour.DT_SUCCESS
	}
	return nil, detour.DT_FAILURE
}
