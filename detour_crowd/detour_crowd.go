package detour_crowd

import (
	"cmp"
	"math"
	"slices"

	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/detour"
)

// / The maximum number of neighbors that a crowd agent can take into account
// / for steering decisions.
const DT_CROWDAGENT_MAX_NEIGHBOURS = 6

// / The maximum number of corners a crowd agent will look ahead in the path.
// / The actual number of useful corners will be one less than this number.
const DT_CROWDAGENT_MAX_CORNERS = 4

// / The maximum number of query filter types supported by the crowd manager.
const DT_CROWD_MAX_QUERY_FILTER_TYPE = 16

const (
	MAX_ITERS_PER_UPDATE = 100
	MAX_PATHQUEUE_NODES  = 4096
	MAX_COMMON_NODES     = 512
	MAX_PATH_RESULT      = 256
)

// / Provides neighbor data for agents managed by the crowd.
type DtCrowdNeighbour struct {
	Idx  int     ///< The index of the neighbor in the crowd.
	Dist float32 ///< The distance between the current agent and the neighbor.
}

// / The type of navigation mesh polygon the agent is currently traversing.
type DtCrowdAgentState uint8

const (
	DT_CROWDAGENT_STATE_INVALID DtCrowdAgentState = iota ///< The agent is not in a valid state.
	DT_CROWDAGENT_STATE_WALKING                          ///< The agent is traversing a normal navigation mesh polygon.
	DT_CROWDAGENT_STATE_OFFMESH                          ///< The agent is traversing an off-mesh connection.
)

type DtMoveRequestState uint8

const (
	DT_CROWDAGENT_TARGET_NONE DtMoveRequestState = iota
	DT_CROWDAGENT_TARGET_FAILED
	DT_CROWDAGENT_TARGET_VALID
	DT_CROWDAGENT_TARGET_REQUESTING
	DT_CROWDAGENT_TARGET_WAITING_FOR_QUEUE
	DT_CROWDAGENT_TARGET_WAITING_FOR_PATH
	DT_CROWDAGENT_TARGET_VELOCITY
)

// / Crowd agent update flags.
const (
	DT_CROWD_ANTICIPATE_TURNS   = 1
	DT_CROWD_OBSTACLE_AVOIDANCE = 2  ///< Reserved. The new velocity is always the desired velocity.
	DT_CROWD_SEPARATION         = 4  ///< Steer away from neighbours.
	DT_CROWD_OPTIMIZE_VIS       = 8  ///< Use DtPathCorridor.OptimizePathVisibility to optimize the agent path.
	DT_CROWD_OPTIMIZE_TOPO      = 16 ///< Use DtPathCorridor.OptimizePathTopology to optimize the agent path.
)

// / Configuration parameters for a crowd agent.
type DtCrowdAgentParams struct {
	Radius          float32 ///< Agent radius. [Limit: >= 0]
	Height          float32 ///< Agent height. [Limit: > 0]
	MaxAcceleration float32 ///< Maximum allowed acceleration. [Limit: >= 0]
	MaxSpeed        float32 ///< Maximum allowed speed. [Limit: >= 0]

	/// Defines how close a collision element must be before it is considered for steering behaviors. [Limits: > 0]
	CollisionQueryRange float32

	PathOptimizationRange float32 ///< The path visibility optimization range. [Limit: > 0]

	/// How aggresive the agent manager should be at avoiding collisions with this agent. [Limit: >= 0]
	SeparationWeight float32

	/// Flags that impact steering behavior.
	UpdateFlags uint8

	/// The index of the query filter used by this agent.
	QueryFilterType uint8

	/// User defined data attached to the agent.
	UserData any
}

// / Represents an agent managed by a DtCrowd.
type DtCrowdAgent struct {
	/// True if the agent is active, false if the agent is in an unused slot in the agent pool.
	Active bool

	State DtCrowdAgentState

	/// True if the agent has valid path and the path does not lead to the requested position.
	Partial bool

	Corridor *DtPathCorridor

	/// Time since the agent's path corridor was optimized.
	TopologyOptTime float32

	/// The known neighbors of the agent, nearest first.
	Neis []DtCrowdNeighbour

	DesiredSpeed float32

	Npos [3]float32 ///< The current agent position. [(x, y, z)]
	Disp [3]float32 ///< Displacement accumulated during iterative collision resolution.
	Dvel [3]float32 ///< The desired velocity of the agent, calculated from scratch each frame.
	Nvel [3]float32 ///< The new velocity of the agent.
	Vel  [3]float32 ///< The actual velocity. The change from nvel to vel is constrained by max acceleration.

	Params DtCrowdAgentParams

	/// The local path corridor corners for the agent. [(x, y, z) * ncorners]
	CornerVerts []float32
	CornerFlags []uint8
	/// The reference id of the polygon being entered at the corner.
	CornerPolys []detour.DtPolyRef

	TargetState      DtMoveRequestState
	TargetRef        detour.DtPolyRef ///< Target polyref of the movement request.
	TargetPos        [3]float32       ///< Target position of the movement request (or velocity for DT_CROWDAGENT_TARGET_VELOCITY).
	TargetPathqRef   DtPathQueueRef
	TargetReplan     bool    ///< The current path is being replanned.
	TargetReplanTime float32 ///< Time since the agent's target was replanned.

	idx int
}

func (ag *DtCrowdAgent) CornerCount() int { return len(ag.CornerFlags) }

type DtCrowdAgentDebugInfo struct {
	Idx              int
	OptStart, OptEnd [3]float32
}

// / Provides local steering behaviors for a group of agents.
type DtCrowd struct {
	m_agents       []*DtCrowdAgent
	m_activeAgents []*DtCrowdAgent

	m_pathq *DtPathQueue
	m_grid  *DtProximityGrid

	m_agentPlacementHalfExtents [3]float32
	m_filters                   [DT_CROWD_MAX_QUERY_FILTER_TYPE]*detour.DtQueryFilter
	m_maxAgentRadius            float32

	m_navquery *detour.DtNavMeshQuery
}

// / Creates a crowd of at most maxAgents agents walking on nav.
func NewDtCrowd(maxAgents int, maxAgentRadius float32, nav *detour.DtNavMesh) (*DtCrowd, detour.DtStatus) {
	if maxAgents <= 0 || maxAgentRadius <= 0 || nav == nil {
		return nil, detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	d := &DtCrowd{m_maxAgentRadius: maxAgentRadius}

	// Larger than agent radius because it is also used for agent recovery.
	common.Vset(d.m_agentPlacementHalfExtents[:], maxAgentRadius*2.0, maxAgentRadius*1.5, maxAgentRadius*2.0)

	d.m_grid = NewDtProximityGrid(int32(maxAgents*4), maxAgentRadius*3)
	if d.m_grid == nil {
		return nil, detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	for i := range d.m_filters {
		d.m_filters[i] = detour.NewDtQueryFilter()
	}

	var status detour.DtStatus
	d.m_pathq, status = NewDtPathQueue(MAX_PATH_RESULT, MAX_PATHQUEUE_NODES, nav)
	if status.Failed() {
		return nil, status
	}

	d.m_agents = make([]*DtCrowdAgent, maxAgents)
	for i := range d.m_agents {
		d.m_agents[i] = &DtCrowdAgent{idx: i, Corridor: NewDtPathCorridor(MAX_PATH_RESULT)}
	}
	d.m_activeAgents = make([]*DtCrowdAgent, 0, maxAgents)

	// The navquery is mostly used for local searches, no need for large node pool.
	d.m_navquery, status = detour.NewDtNavMeshQuery(nav, MAX_COMMON_NODES)
	if status.Failed() {
		return nil, status
	}
	return d, detour.DT_SUCCESS
}

// / Gets the filter used by the crowd.
func (d *DtCrowd) GetFilter(i int) *detour.DtQueryFilter {
	if i >= 0 && i < DT_CROWD_MAX_QUERY_FILTER_TYPE {
		return d.m_filters[i]
	}
	return nil
}

// / Gets the search halfExtents used by the crowd for query operations.
func (d *DtCrowd) GetQueryHalfExtents() [3]float32 { return d.m_agentPlacementHalfExtents }

func (d *DtCrowd) GetGrid() *DtProximityGrid              { return d.m_grid }
func (d *DtCrowd) GetPathQueue() *DtPathQueue             { return d.m_pathq }
func (d *DtCrowd) GetNavMeshQuery() *detour.DtNavMeshQuery { return d.m_navquery }
func (d *DtCrowd) GetMaxAgentRadius() float32             { return d.m_maxAgentRadius }

// / Returns the size of the agent pool.
func (d *DtCrowd) GetAgentCount() int { return len(d.m_agents) }

// / Agents in the pool may not be in use. Check DtCrowdAgent.Active before using the returned object.
func (d *DtCrowd) GetAgent(idx int) *DtCrowdAgent {
	if idx < 0 || idx >= len(d.m_agents) {
		return nil
	}
	return d.m_agents[idx]
}

// / Returns the active agents in pool order.
func (d *DtCrowd) GetActiveAgents() []*DtCrowdAgent {
	d.m_activeAgents = d.m_activeAgents[:0]
	for _, ag := range d.m_agents {
		if ag.Active {
			d.m_activeAgents = append(d.m_activeAgents, ag)
		}
	}
	return d.m_activeAgents
}

func (d *DtCrowd) filterFor(ag *DtCrowdAgent) *detour.DtQueryFilter {
	if int(ag.Params.QueryFilterType) < DT_CROWD_MAX_QUERY_FILTER_TYPE {
		return d.m_filters[ag.Params.QueryFilterType]
	}
	return d.m_filters[0]
}

func (d *DtCrowd) UpdateAgentParameters(idx int, params *DtCrowdAgentParams) {
	if idx < 0 || idx >= len(d.m_agents) || params == nil {
		return
	}
	d.m_agents[idx].Params = *params
}

// / Adds an agent to the crowd. The position is constrained to the surface of the navigation mesh.
// / Returns the agent index, or -1 when the pool is full.
func (d *DtCrowd) AddAgent(pos []float32, params *DtCrowdAgentParams) int {
	if params == nil {
		return -1
	}
	idx := -1
	for i, ag := range d.m_agents {
		if !ag.Active {
			idx = i
			break
		}
	}
	if idx == -1 {
		return -1
	}

	ag := d.m_agents[idx]
	d.UpdateAgentParameters(idx, params)
	d.placeAgent(ag, pos)
	ag.Active = true
	return idx
}

// / Moves the agent to the nearest navmesh position to pos and clears all motion state.
func (d *DtCrowd) placeAgent(ag *DtCrowdAgent, pos []float32) {
	var nearest [3]float32
	copy(nearest[:], pos)
	ref, pt, _, status := d.m_navquery.FindNearestPoly(pos, d.m_agentPlacementHalfExtents[:], d.filterFor(ag))
	if status.Failed() || ref == 0 {
		ref = 0
	} else {
		nearest = pt
	}

	ag.Corridor.Reset(ref, nearest[:])
	ag.Partial = false
	ag.TopologyOptTime = 0
	ag.TargetReplanTime = 0
	ag.Neis = ag.Neis[:0]
	ag.Dvel = [3]float32{}
	ag.Nvel = [3]float32{}
	ag.Vel = [3]float32{}
	ag.Npos = nearest
	ag.DesiredSpeed = 0
	ag.CornerVerts, ag.CornerFlags, ag.CornerPolys = nil, nil, nil

	if ref != 0 {
		ag.State = DT_CROWDAGENT_STATE_WALKING
	} else {
		ag.State = DT_CROWDAGENT_STATE_INVALID
	}
	ag.TargetState = DT_CROWDAGENT_TARGET_NONE
}

// / Places an active agent at a new position, dropping its move request.
func (d *DtCrowd) TeleportAgent(idx int, pos []float32) bool {
	ag := d.GetAgent(idx)
	if ag == nil || !ag.Active {
		return false
	}
	d.placeAgent(ag, pos)
	return true
}

// / Marks the agent slot as unused. The agent object stays in the pool for reuse.
func (d *DtCrowd) RemoveAgent(idx int) {
	if idx >= 0 && idx < len(d.m_agents) {
		d.m_agents[idx].Active = false
	}
}

func (d *DtCrowd) requestMoveTargetReplan(ag *DtCrowdAgent, ref detour.DtPolyRef, pos []float32) {
	ag.TargetRef = ref
	copy(ag.TargetPos[:], pos)
	ag.TargetPathqRef = DT_PATHQ_INVALID
	ag.TargetReplan = true
	if ag.TargetRef != 0 {
		ag.TargetState = DT_CROWDAGENT_TARGET_REQUESTING
	} else {
		ag.TargetState = DT_CROWDAGENT_TARGET_FAILED
	}
}

// / Submits a new move request. The request is processed during the next Update.
func (d *DtCrowd) RequestMoveTarget(idx int, ref detour.DtPolyRef, pos []float32) bool {
	ag := d.GetAgent(idx)
	if ag == nil || ref == 0 {
		return false
	}
	ag.TargetRef = ref
	copy(ag.TargetPos[:], pos)
	ag.TargetPathqRef = DT_PATHQ_INVALID
	ag.TargetReplan = false
	ag.TargetState = DT_CROWDAGENT_TARGET_REQUESTING
	return true
}

// / Submits a new velocity request. The agent drives with the velocity until another request is made.
func (d *DtCrowd) RequestMoveVelocity(idx int, vel []float32) bool {
	ag := d.GetAgent(idx)
	if ag == nil {
		return false
	}
	ag.TargetRef = 0
	copy(ag.TargetPos[:], vel)
	ag.TargetPathqRef = DT_PATHQ_INVALID
	ag.TargetReplan = false
	ag.TargetState = DT_CROWDAGENT_TARGET_VELOCITY
	return true
}

func (d *DtCrowd) ResetMoveTarget(idx int) bool {
	ag := d.GetAgent(idx)
	if ag == nil {
		return false
	}
	ag.TargetRef = 0
	ag.TargetPos = [3]float32{}
	ag.Dvel = [3]float32{}
	ag.TargetPathqRef = DT_PATHQ_INVALID
	ag.TargetReplan = false
	ag.TargetState = DT_CROWDAGENT_TARGET_NONE
	return true
}

func hasPathTarget(ag *DtCrowdAgent) bool {
	return ag.TargetState != DT_CROWDAGENT_TARGET_NONE && ag.TargetState != DT_CROWDAGENT_TARGET_VELOCITY
}

func integrate(ag *DtCrowdAgent, dt float32) {
	// Fake dynamic constraint.
	maxDelta := ag.Params.MaxAcceleration * dt
	var dv [3]float32
	common.Vsub(dv[:], ag.Nvel[:], ag.Vel[:])
	ds := common.Vlen(dv[:])
	if ds > maxDelta {
		common.Vscale(dv[:], dv[:], maxDelta/ds)
	}
	common.Vadd(ag.Vel[:], ag.Vel[:], dv[:])

	// Integrate
	if common.Vlen(ag.Vel[:]) > 0.0001 {
		common.Vmad(ag.Npos[:], ag.Npos[:], ag.Vel[:], dt)
	} else {
		ag.Vel = [3]float32{}
	}
}

func getDistanceToGoal(ag *DtCrowdAgent, rangef float32) float32 {
	n := ag.CornerCount()
	if n == 0 {
		return rangef
	}
	if ag.CornerFlags[n-1]&detour.DT_STRAIGHTPATH_END != 0 {
		return min(common.Vdist2D(ag.Npos[:], common.GetVert3(ag.CornerVerts, n-1)), rangef)
	}
	return rangef
}

func calcSmoothSteerDirection(ag *DtCrowdAgent, dir []float32) {
	n := ag.CornerCount()
	if n == 0 {
		common.Vset(dir, 0, 0, 0)
		return
	}

	p0 := common.GetVert3(ag.CornerVerts, 0)
	p1 := common.GetVert3(ag.CornerVerts, min(1, n-1))

	var dir0, dir1 [3]float32
	common.Vsub(dir0[:], p0, ag.Npos[:])
	common.Vsub(dir1[:], p1, ag.Npos[:])
	dir0[1] = 0
	dir1[1] = 0

	len0 := common.Vlen(dir0[:])
	len1 := common.Vlen(dir1[:])
	if len1 > 0.001 {
		common.Vscale(dir1[:], dir1[:], 1.0/len1)
	}

	dir[0] = dir0[0] - dir1[0]*len0*0.5
	dir[1] = 0
	dir[2] = dir0[2] - dir1[2]*len0*0.5
	common.Vnormalize(dir)
}

func calcStraightSteerDirection(ag *DtCrowdAgent, dir []float32) {
	if ag.CornerCount() == 0 {
		common.Vset(dir, 0, 0, 0)
		return
	}
	common.Vsub(dir, ag.CornerVerts[:3], ag.Npos[:])
	dir[1] = 0
	common.Vnormalize(dir)
}

// / Inserts a neighbour keeping the list sorted by distance and capped at maxNeis.
func addNeighbour(idx int, dist float32, neis []DtCrowdNeighbour, maxNeis int) []DtCrowdNeighbour {
	i := 0
	for i < len(neis) && dist > neis[i].Dist {
		i++
	}
	if i >= maxNeis {
		return neis
	}
	neis = slices.Insert(neis, i, DtCrowdNeighbour{Idx: idx, Dist: dist})
	if len(neis) > maxNeis {
		neis = neis[:maxNeis]
	}
	return neis
}

func (d *DtCrowd) getNeighbours(ag *DtCrowdAgent, agents []*DtCrowdAgent) []DtCrowdNeighbour {
	const MAX_NEIS = 32
	pos := ag.Npos
	rangef := ag.Params.CollisionQueryRange
	result := ag.Neis[:0]

	ids := d.m_grid.QueryItems(pos[0]-rangef, pos[2]-rangef, pos[0]+rangef, pos[2]+rangef, MAX_NEIS)
	for _, id := range ids {
		nei := agents[id]
		if nei == ag {
			continue
		}

		// Check for overlap.
		var diff [3]float32
		common.Vsub(diff[:], pos[:], nei.Npos[:])
		if common.Abs(diff[1]) >= (ag.Params.Height+nei.Params.Height)/2.0 {
			continue
		}
		diff[1] = 0
		distSqr := common.VlenSqr(diff[:])
		if distSqr > common.Sqr(rangef) {
			continue
		}
		result = addNeighbour(nei.idx, distSqr, result, DT_CROWDAGENT_MAX_NEIGHBOURS)
	}
	return result
}

func (d *DtCrowd) updateMoveRequest() {
	const PATH_MAX_AGENTS = 8
	const MAX_RES = 32
	const MAX_ITER = 20

	var queue []*DtCrowdAgent

	// Fire off new requests.
	for _, ag := range d.m_agents {
		if !ag.Active || ag.State == DT_CROWDAGENT_STATE_INVALID || !hasPathTarget(ag) {
			continue
		}
		filter := d.filterFor(ag)

		if ag.TargetState == DT_CROWDAGENT_TARGET_REQUESTING {
			path := ag.Corridor.GetPath()

			// Quick search towards the goal.
			d.m_navquery.InitSlicedFindPath(path[0], ag.TargetRef, ag.Npos[:], ag.TargetPos[:], filter, 0)
			d.m_navquery.UpdateSlicedFindPath(MAX_ITER)

			var reqPath []detour.DtPolyRef
			var status detour.DtStatus
			if ag.TargetReplan {
				// Try to use existing steady path during replan if possible.
				reqPath, status = d.m_navquery.FinalizeSlicedFindPathPartial(path, MAX_RES)
			} else {
				// Try to move towards target when goal changes.
				reqPath, status = d.m_navquery.FinalizeSlicedFindPath(MAX_RES)
			}

			var reqPos [3]float32
			if !status.Failed() && len(reqPath) > 0 {
				if last := reqPath[len(reqPath)-1]; last != ag.TargetRef {
					// Partial path, constrain target position inside the last polygon.
					closest, _, cs := d.m_navquery.ClosestPointOnPoly(last, ag.TargetPos[:])
					if cs.Failed() {
						reqPath = nil
					} else {
						reqPos = closest
					}
				} else {
					reqPos = ag.TargetPos
				}
			} else {
				reqPath = nil
			}

			if len(reqPath) == 0 {
				// Could not find path, start the request from current location.
				reqPos = ag.Npos
				reqPath = []detour.DtPolyRef{path[0]}
			}

			ag.Corridor.SetCorridor(reqPos[:], reqPath)
			ag.Partial = false

			if reqPath[len(reqPath)-1] == ag.TargetRef {
				ag.TargetState = DT_CROWDAGENT_TARGET_VALID
				ag.TargetReplanTime = 0
			} else {
				// The path is longer or potentially unreachable, full plan.
				ag.TargetState = DT_CROWDAGENT_TARGET_WAITING_FOR_QUEUE
			}
		}

		if ag.TargetState == DT_CROWDAGENT_TARGET_WAITING_FOR_QUEUE {
			queue = append(queue, ag)
		}
	}

	// Agents waiting the longest go first.
	slices.SortStableFunc(queue, func(a, b *DtCrowdAgent) int {
		return cmp.Compare(b.TargetReplanTime, a.TargetReplanTime)
	})
	if len(queue) > PATH_MAX_AGENTS {
		queue = queue[:PATH_MAX_AGENTS]
	}
	for _, ag := range queue {
		target := ag.Corridor.GetTarget()
		ag.TargetPathqRef = d.m_pathq.Request(ag.Corridor.GetLastPoly(), ag.TargetRef, target[:], ag.TargetPos[:], d.filterFor(ag))
		if ag.TargetPathqRef != DT_PATHQ_INVALID {
			ag.TargetState = DT_CROWDAGENT_TARGET_WAITING_FOR_PATH
		}
	}

	// Update requests.
	d.m_pathq.Update(MAX_ITERS_PER_UPDATE)

	// Process path results.
	for _, ag := range d.m_agents {
		if !ag.Active || ag.TargetState != DT_CROWDAGENT_TARGET_WAITING_FOR_PATH {
			continue
		}

		// Poll path queue.
		status := d.m_pathq.GetRequestStatus(ag.TargetPathqRef)
		if status.Failed() {
			// Path find failed, retry if the target location is still valid.
			ag.TargetPathqRef = DT_PATHQ_INVALID
			if ag.TargetRef != 0 {
				ag.TargetState = DT_CROWDAGENT_TARGET_REQUESTING
			} else {
				ag.TargetState = DT_CROWDAGENT_TARGET_FAILED
			}
			ag.TargetReplanTime = 0
			continue
		}
		if !status.Succeed() {
			continue
		}

		path := ag.Corridor.GetPath()
		targetPos := ag.TargetPos

		res, rs := d.m_pathq.GetPathResult(ag.TargetPathqRef)
		valid := !rs.Failed() && len(res) > 0
		ag.Partial = rs.Detail(detour.DT_PARTIAL_RESULT)

		// The agent might have moved whilst the request was being processed.
		// The request was issued at the end of the old path.
		if valid && path[len(path)-1] != res[0] {
			valid = false
		}

		if valid {
			// Put the old path in front of the result.
			if len(path) > 1 {
				merged := make([]detour.DtPolyRef, 0, len(path)-1+len(res))
				merged = append(merged, path[:len(path)-1]...)
				merged = append(merged, res...)
				if len(merged) > MAX_PATH_RESULT {
					merged = merged[:MAX_PATH_RESULT]
				}

				// Remove trackbacks
				for j := 1; j+1 < len(merged); j++ {
					if merged[j-1] == merged[j+1] {
						merged = append(merged[:j-1], merged[j+1:]...)
						j = max(j-2, 0)
					}
				}
				res = merged
			}

			// Check for partial path.
			if last := res[len(res)-1]; last != ag.TargetRef {
				// Partial path, constrain target position inside the last polygon.
				nearest, _, cs := d.m_navquery.ClosestPointOnPoly(last, targetPos[:])
				if cs.Succeed() {
					targetPos = nearest
				} else {
					valid = false
				}
			}
		}

		if valid {
			ag.Corridor.SetCorridor(targetPos[:], res)
			ag.TargetState = DT_CROWDAGENT_TARGET_VALID
		} else {
			// Something went wrong.
			ag.TargetState = DT_CROWDAGENT_TARGET_FAILED
		}
		ag.TargetReplanTime = 0
	}
}

func (d *DtCrowd) updateTopologyOptimization(agents []*DtCrowdAgent, dt float32) {
	const OPT_TIME_THR = 0.5 // seconds
	const OPT_MAX_AGENTS = 1

	var queue []*DtCrowdAgent
	for _, ag := range agents {
		if ag.State != DT_CROWDAGENT_STATE_WALKING || !hasPathTarget(ag) {
			continue
		}
		if ag.Params.UpdateFlags&DT_CROWD_OPTIMIZE_TOPO == 0 {
			continue
		}
		ag.TopologyOptTime += dt
		if ag.TopologyOptTime >= OPT_TIME_THR {
			queue = append(queue, ag)
		}
	}

	slices.SortStableFunc(queue, func(a, b *DtCrowdAgent) int {
		return cmp.Compare(b.TopologyOptTime, a.TopologyOptTime)
	})
	if len(queue) > OPT_MAX_AGENTS {
		queue = queue[:OPT_MAX_AGENTS]
	}
	for _, ag := range queue {
		ag.Corridor.OptimizePathTopology(d.m_navquery, d.filterFor(ag))
		ag.TopologyOptTime = 0
	}
}

func (d *DtCrowd) checkPathValidity(agents []*DtCrowdAgent, dt float32) {
	const CHECK_LOOKAHEAD = 10
	const TARGET_REPLAN_DELAY = 1.0 // seconds

	for _, ag := range agents {
		if ag.State != DT_CROWDAGENT_STATE_WALKING {
			continue
		}
		filter := d.filterFor(ag)
		ag.TargetReplanTime += dt

		replan := false

		// First check that the current location is valid.
		agentPos := ag.Npos
		agentRef := ag.Corridor.GetFirstPoly()
		if !d.m_navquery.IsValidPolyRef(agentRef, filter) {
			// Current location is not valid, try to reposition.
			ref, nearest, _, _ := d.m_navquery.FindNearestPoly(ag.Npos[:], d.m_agentPlacementHalfExtents[:], filter)
			agentRef = ref
			if agentRef == 0 {
				// Could not find location in navmesh, set state to invalid.
				ag.Corridor.Reset(0, agentPos[:])
				ag.Partial = false
				ag.State = DT_CROWDAGENT_STATE_INVALID
				continue
			}
			agentPos = nearest

			// Make sure the first polygon is valid, but leave other valid
			// polygons in the path so that replanner can adjust the path better.
			ag.Corridor.FixPathStart(agentRef, agentPos[:])
			ag.Npos = agentPos
			replan = true
		}

		// If the agent does not have move target or is controlled by velocity, no need to recover the target nor replan.
		if !hasPathTarget(ag) {
			continue
		}

		// Try to recover move request position.
		if ag.TargetState != DT_CROWDAGENT_TARGET_FAILED {
			if !d.m_navquery.IsValidPolyRef(ag.TargetRef, filter) {
				// Current target is not valid, try to reposition.
				ref, nearest, _, _ := d.m_navquery.FindNearestPoly(ag.TargetPos[:], d.m_agentPlacementHalfExtents[:], filter)
				ag.TargetRef = ref
				if ref != 0 {
					ag.TargetPos = nearest
				}
				replan = true
			}
			if ag.TargetRef == 0 {
				// Failed to reposition target, fail moverequest.
				ag.Corridor.Reset(agentRef, agentPos[:])
				ag.Partial = false
				ag.TargetState = DT_CROWDAGENT_TARGET_NONE
			}
		}

		// If nearby corridor is not valid, replan.
		if !ag.Corridor.IsValid(CHECK_LOOKAHEAD, d.m_navquery, filter) {
			replan = true
		}

		// If the end of the path is near and it is not the requested location, replan.
		if ag.TargetState == DT_CROWDAGENT_TARGET_VALID {
			if ag.TargetReplanTime > TARGET_REPLAN_DELAY && ag.Corridor.GetPathCount() < CHECK_LOOKAHEAD &&
				ag.Corridor.GetLastPoly() != ag.TargetRef {
				replan = true
			}
		}

		// Try to replan path to goal.
		if replan && ag.TargetState != DT_CROWDAGENT_TARGET_NONE {
			d.requestMoveTargetReplan(ag, ag.TargetRef, ag.TargetPos[:])
		}
	}
}

// / Advances the simulation by dt seconds. debug may be nil.
func (d *DtCrowd) Update(dt float32, debug *DtCrowdAgentDebugInfo) {
	debugIdx := -1
	if debug != nil {
		debugIdx = debug.Idx
	}

	agents := d.GetActiveAgents()

	// Check that all agents still have valid paths.
	d.checkPathValidity(agents, dt)

	// Update async move request and path finder.
	d.updateMoveRequest()

	// Optimize path topology.
	d.updateTopologyOptimization(agents, dt)

	// Register agents to proximity grid.
	d.m_grid.Clear()
	for i, ag := range agents {
		p := ag.Npos
		r := ag.Params.Radius
		d.m_grid.AddItem(uint16(i), p[0]-r, p[2]-r, p[0]+r, p[2]+r)
	}

	// Get nearby agents to collide with.
	for _, ag := range agents {
		if ag.State != DT_CROWDAGENT_STATE_WALKING {
			continue
		}
		ag.Neis = d.getNeighbours(ag, agents)
	}

	// Find next corner to steer to.
	for _, ag := range agents {
		if ag.State != DT_CROWDAGENT_STATE_WALKING || !hasPathTarget(ag) {
			continue
		}

		// Find corners for steering
		ag.CornerVerts, ag.CornerFlags, ag.CornerPolys = ag.Corridor.FindCorners(DT_CROWDAGENT_MAX_CORNERS, d.m_navquery)

		// Check to see if the corner after the next corner is directly visible,
		// and short cut to there.
		if ag.Params.UpdateFlags&DT_CROWD_OPTIMIZE_VIS != 0 && ag.CornerCount() > 0 {
			target := common.GetVert3(ag.CornerVerts, min(1, ag.CornerCount()-1))
			ag.Corridor.OptimizePathVisibility(target, ag.Params.PathOptimizationRange, d.m_navquery, d.filterFor(ag))

			if debugIdx == ag.idx {
				debug.OptStart = ag.Corridor.GetPos()
				copy(debug.OptEnd[:], target)
			}
		} else if debugIdx == ag.idx {
			debug.OptStart = [3]float32{}
			debug.OptEnd = [3]float32{}
		}
	}

	// Calculate steering.
	for _, ag := range agents {
		if ag.State != DT_CROWDAGENT_STATE_WALKING || ag.TargetState == DT_CROWDAGENT_TARGET_NONE {
			continue
		}

		var dvel [3]float32
		if ag.TargetState == DT_CROWDAGENT_TARGET_VELOCITY {
			dvel = ag.TargetPos
			ag.DesiredSpeed = common.Vlen(ag.TargetPos[:])
		} else {
			// Calculate steering direction.
			if ag.Params.UpdateFlags&DT_CROWD_ANTICIPATE_TURNS != 0 {
				calcSmoothSteerDirection(ag, dvel[:])
			} else {
				calcStraightSteerDirection(ag, dvel[:])
			}

			// Calculate speed scale, which tells the agent to slowdown at the end of the path.
			slowDownRadius := ag.Params.Radius * 2
			speedScale := getDistanceToGoal(ag, slowDownRadius) / slowDownRadius

			ag.DesiredSpeed = ag.Params.MaxSpeed
			common.Vscale(dvel[:], dvel[:], ag.DesiredSpeed*speedScale)
		}

		// Separation
		if ag.Params.UpdateFlags&DT_CROWD_SEPARATION != 0 {
			separationDist := ag.Params.CollisionQueryRange
			invSeparationDist := 1.0 / separationDist
			separationWeight := ag.Params.SeparationWeight

			var w float32
			var disp [3]float32
			for _, n := range ag.Neis {
				nei := d.m_agents[n.Idx]

				var diff [3]float32
				common.Vsub(diff[:], ag.Npos[:], nei.Npos[:])
				diff[1] = 0

				distSqr := common.VlenSqr(diff[:])
				if distSqr < 0.00001 || distSqr > common.Sqr(separationDist) {
					continue
				}

				dist := common.Sqrtf(distSqr)
				weight := separationWeight * (1.0 - common.Sqr(dist*invSeparationDist))
				common.Vmad(disp[:], disp[:], diff[:], weight/dist)
				w += 1.0
			}

			if w > 0.0001 {
				// Adjust desired velocity.
				common.Vmad(dvel[:], dvel[:], disp[:], 1.0/w)
				// Clamp desired velocity to desired speed.
				speedSqr := common.VlenSqr(dvel[:])
				desiredSqr := common.Sqr(ag.DesiredSpeed)
				if speedSqr > desiredSqr {
					common.Vscale(dvel[:], dvel[:], desiredSqr/speedSqr)
				}
			}
		}

		ag.Dvel = dvel
	}

	// Velocity planning.
	for _, ag := range agents {
		if ag.State != DT_CROWDAGENT_STATE_WALKING {
			continue
		}
		ag.Nvel = ag.Dvel
	}

	// Integrate.
	for _, ag := range agents {
		if ag.State != DT_CROWDAGENT_STATE_WALKING {
			continue
		}
		integrate(ag, dt)
	}

	// Handle collisions.
	const COLLISION_RESOLVE_FACTOR = 0.7
	for iter := 0; iter < 4; iter++ {
		for _, ag := range agents {
			if ag.State != DT_CROWDAGENT_STATE_WALKING {
				continue
			}
			ag.Disp = [3]float32{}

			var w float32
			for _, n := range ag.Neis {
				nei := d.m_agents[n.Idx]

				var diff [3]float32
				common.Vsub(diff[:], ag.Npos[:], nei.Npos[:])
				diff[1] = 0

				dist := common.VlenSqr(diff[:])
				if dist > common.Sqr(ag.Params.Radius+nei.Params.Radius) {
					continue
				}
				dist = common.Sqrtf(dist)
				pen := (ag.Params.Radius + nei.Params.Radius) - dist
				if dist < 0.0001 {
					// Agents on top of each other, try to choose diverging separation directions.
					if ag.idx > nei.idx {
						common.Vset(diff[:], -ag.Dvel[2], 0, ag.Dvel[0])
					} else {
						common.Vset(diff[:], ag.Dvel[2], 0, -ag.Dvel[0])
					}
					pen = 0.01
				} else {
					pen = (1.0 / dist) * (pen * 0.5) * COLLISION_RESOLVE_FACTOR
				}

				common.Vmad(ag.Disp[:], ag.Disp[:], diff[:], pen)
				w += 1.0
			}

			if w > 0.0001 {
				common.Vscale(ag.Disp[:], ag.Disp[:], 1.0/w)
			}
		}

		for _, ag := range agents {
			if ag.State != DT_CROWDAGENT_STATE_WALKING {
				continue
			}
			common.Vadd(ag.Npos[:], ag.Npos[:], ag.Disp[:])
		}
	}

	for _, ag := range agents {
		if ag.State != DT_CROWDAGENT_STATE_WALKING {
			continue
		}

		// Move along navmesh.
		ag.Corridor.MovePosition(ag.Npos[:], d.m_navquery, d.filterFor(ag))
		// Get valid constrained position back.
		ag.Npos = ag.Corridor.GetPos()

		// If not using path, truncate the corridor to just one poly.
		if !hasPathTarget(ag) {
			ag.Corridor.Reset(ag.Corridor.GetFirstPoly(), ag.Npos[:])
			ag.Partial = false
		}
	}
}

// / Distance on the xz plane between the agent and its final corner, or math.MaxFloat32 without corners.
func (ag *DtCrowdAgent) DistanceToCorner() float32 {
	n := ag.CornerCount()
	if n == 0 {
		return math.MaxFloat32
	}
	return common.Vdist2D(ag.Npos[:], common.GetVert3(ag.CornerVerts, n-1))
}
