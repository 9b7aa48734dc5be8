package navmesh

import (
	"errors"
	"fmt"

	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/detour"
	"github.com/gorustyt/navbind/detour_crowd"
)

// / Step used by FixedStep.
const DefaultCrowdTimeStep = float32(1) / 60

var ErrCrowdFull = errors.New("navmesh: crowd has no free agent slot")

type CrowdAgentParams = detour_crowd.DtCrowdAgentParams

// / DefaultCrowdAgentParams mirrors the values most callers start from.
func DefaultCrowdAgentParams() CrowdAgentParams {
	return CrowdAgentParams{
		Radius:                0.5,
		Height:                1,
		MaxAcceleration:       20,
		MaxSpeed:              6,
		CollisionQueryRange:   2.5,
		PathOptimizationRange: 0,
		SeparationWeight:      0,
		UpdateFlags: detour_crowd.DT_CROWD_ANTICIPATE_TURNS | detour_crowd.DT_CROWD_SEPARATION |
			detour_crowd.DT_CROWD_OPTIMIZE_VIS | detour_crowd.DT_CROWD_OPTIMIZE_TOPO,
	}
}

// / Crowd moves agents over a NavMesh.
type Crowd struct {
	Raw *detour_crowd.DtCrowd

	TimeStep    float32
	accumulator float32
}

func NewCrowd(nav *NavMesh, maxAgents int, maxAgentRadius float32) (*Crowd, error) {
	c, status := detour_crowd.NewDtCrowd(maxAgents, maxAgentRadius, nav.Raw)
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("navmesh: new crowd: %w", err)
	}
	return &Crowd{Raw: c, TimeStep: DefaultCrowdTimeStep}, nil
}

func (c *Crowd) AddAgent(pos common.Vec3, params CrowdAgentParams) (*CrowdAgent, error) {
	idx := c.Raw.AddAgent(pos[:], &params)
	if idx < 0 {
		return nil, ErrCrowdFull
	}
	return &CrowdAgent{crowd: c, Index: idx}, nil
}

// / Removing nil or an agent of another crowd is a no-op.
func (c *Crowd) RemoveAgent(ag *CrowdAgent) {
	if ag == nil || ag.crowd != c {
		return
	}
	c.Raw.RemoveAgent(ag.Index)
}

func (c *Crowd) GetAgent(idx int) *CrowdAgent {
	ag := c.Raw.GetAgent(idx)
	if ag == nil || !ag.Active {
		return nil
	}
	return &CrowdAgent{crowd: c, Index: idx}
}

func (c *Crowd) GetAgentCount() int { return c.Raw.GetAgentCount() }

// / Indices of the agents in use.
func (c *Crowd) GetAgents() []*CrowdAgent {
	var out []*CrowdAgent
	for i := 0; i < c.Raw.GetAgentCount(); i++ {
		if ag := c.Raw.GetAgent(i); ag != nil && ag.Active {
			out = append(out, &CrowdAgent{crowd: c, Index: i})
		}
	}
	return out
}

func (c *Crowd) GetFilter(i int) *detour.DtQueryFilter { return c.Raw.GetFilter(i) }

func (c *Crowd) GetQueryHalfExtents() common.Vec3 { return c.Raw.GetQueryHalfExtents() }

func (c *Crowd) Update(dt float32) {
	c.Raw.Update(dt, nil)
}

// / Advances the crowd in steps of TimeStep, carrying the remainder to the next call.
// / At most maxSubSteps steps run per call; time beyond that is dropped.
func (c *Crowd) FixedStep(dt float32, maxSubSteps int) int {
	if c.TimeStep <= 0 || maxSubSteps <= 0 {
		return 0
	}
	c.accumulator += dt
	steps := 0
	for c.accumulator >= c.TimeStep && steps < maxSubSteps {
		c.Raw.Update(c.TimeStep, nil)
		c.accumulator -= c.TimeStep
		steps++
	}
	if steps == maxSubSteps && c.accumulator >= c.TimeStep {
		c.accumulator = 0
	}
	return steps
}

func (c *Crowd) Destroy() {
	c.Raw = nil
}

// / CrowdAgent is a handle to one slot of a Crowd.
type CrowdAgent struct {
	crowd *Crowd
	Index int
}

// / Read by handles whose index is outside the pool.
var noAgent detour_crowd.DtCrowdAgent

func (a *CrowdAgent) raw() *detour_crowd.DtCrowdAgent {
	if ag := a.crowd.Raw.GetAgent(a.Index); ag != nil {
		return ag
	}
	return &noAgent
}

// / Requests a move to the point of the navmesh nearest to pos.
func (a *CrowdAgent) Goto(pos common.Vec3) bool {
	raw := a.crowd.Raw
	if raw.GetAgent(a.Index) == nil {
		return false
	}
	he := raw.GetQueryHalfExtents()
	filter := raw.GetFilter(int(a.raw().Params.QueryFilterType))
	ref, pt, _, status := raw.GetNavMeshQuery().FindNearestPoly(pos[:], he[:], filter)
	if status.Failed() || ref == 0 {
		return false
	}
	return raw.RequestMoveTarget(a.Index, ref, pt[:])
}

func (a *CrowdAgent) ResetMoveTarget() bool { return a.crowd.Raw.ResetMoveTarget(a.Index) }

func (a *CrowdAgent) RequestMoveVelocity(vel common.Vec3) bool {
	return a.crowd.Raw.RequestMoveVelocity(a.Index, vel[:])
}

func (a *CrowdAgent) Teleport(pos common.Vec3) bool { return a.crowd.Raw.TeleportAgent(a.Index, pos[:]) }

func (a *CrowdAgent) Position() common.Vec3        { return a.raw().Npos }
func (a *CrowdAgent) Velocity() common.Vec3        { return a.raw().Vel }
func (a *CrowdAgent) DesiredVelocity() common.Vec3 { return a.raw().Dvel }

func (a *CrowdAgent) State() detour_crowd.DtCrowdAgentState        { return a.raw().State }
func (a *CrowdAgent) TargetState() detour_crowd.DtMoveRequestState { return a.raw().TargetState }

// / Corner points of the visible path, nearest first.
func (a *CrowdAgent) Corners() []common.Vec3 { return toVec3s(a.raw().CornerVerts) }

// / The first corner, or the target when the agent has no corners.
func (a *CrowdAgent) NextTargetInPath() common.Vec3 {
	ag := a.raw()
	if len(ag.CornerVerts) >= 3 {
		return common.Vec3{ag.CornerVerts[0], ag.CornerVerts[1], ag.CornerVerts[2]}
	}
	if ag.Corridor == nil {
		return common.Vec3{}
	}
	return ag.Corridor.GetTarget()
}

func (a *CrowdAgent) Parameters() CrowdAgentParams { return a.raw().Params }

func (a *CrowdAgent) UpdateParameters(params CrowdAgentParams) {
	a.crowd.Raw.UpdateAgentParameters(a.Index, &params)
}

func (a *CrowdAgent) Active() bool {
	return a.raw().Active
}
