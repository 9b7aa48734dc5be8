package detour_crowd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/navbind/common"
	"github.com/gorustyt/navbind/detour"
)

const nul = detour.MESH_NULL_IDX

// buildTwoQuads creates two 10x10 quads side by side along x, sharing the edge at x=10.
func buildTwoQuads(t *testing.T) *detour.DtNavMesh {
	t.Helper()
	data, ok := detour.DtCreateNavMeshData(&detour.DtNavMeshCreateParams{
		Verts: []uint16{
			0, 0, 0,
			0, 0, 10,
			10, 0, 10,
			10, 0, 0,
			20, 0, 10,
			20, 0, 0,
		},
		VertCount: 6,
		Polys: []uint16{
			0, 1, 2, 3, nul, nul, nul, nul, 1, nul, nul, nul,
			3, 2, 4, 5, nul, nul, 0, nul, nul, nul, nul, nul,
		},
		PolyFlags:      []uint16{1, 1},
		PolyAreas:      []uint8{0, 0},
		PolyCount:      2,
		Nvp:            6,
		Bmin:           [3]float32{0, 0, 0},
		Bmax:           [3]float32{20, 2, 10},
		WalkableHeight: 2,
		WalkableRadius: 0.5,
		WalkableClimb:  0.9,
		Cs:             1,
		Ch:             1,
		BuildBvTree:    true,
	})
	require.True(t, ok)
	nav := detour.NewDtNavMesh()
	require.True(t, nav.InitSingle(data, detour.DT_TILE_FREE_DATA).Succeed())
	return nav
}

func polyRefs(nav *detour.DtNavMesh) (a, b detour.DtPolyRef) {
	base := nav.GetPolyRefBase(nav.GetTileAt(0, 0, 0))
	return base, base | 1
}

func agentParams() *DtCrowdAgentParams {
	return &DtCrowdAgentParams{
		Radius:                0.5,
		Height:                2,
		MaxAcceleration:       8,
		MaxSpeed:              3.5,
		CollisionQueryRange:   2.5,
		PathOptimizationRange: 15,
		SeparationWeight:      2,
		UpdateFlags:           DT_CROWD_ANTICIPATE_TURNS | DT_CROWD_OPTIMIZE_VIS | DT_CROWD_OPTIMIZE_TOPO,
	}
}

func newTestCrowd(t *testing.T, maxAgents int) (*DtCrowd, *detour.DtNavMesh) {
	t.Helper()
	nav := buildTwoQuads(t)
	crowd, status := NewDtCrowd(maxAgents, 0.6, nav)
	require.True(t, status.Succeed(), status.String())
	return crowd, nav
}

func step(crowd *DtCrowd, n int) {
	for i := 0; i < n; i++ {
		crowd.Update(0.1, nil)
	}
}

func TestProximityGrid(t *testing.T) {
	assert.Nil(t, NewDtProximityGrid(0, 1))
	assert.Nil(t, NewDtProximityGrid(8, 0))

	g := NewDtProximityGrid(16, 1)
	require.NotNil(t, g)
	g.AddItem(1, 0.2, 0.2, 0.8, 0.8)
	g.AddItem(2, 0.5, 0.5, 1.5, 0.8)
	g.AddItem(3, 5.1, 5.1, 5.4, 5.4)

	assert.Equal(t, 2, g.GetItemCountAt(0, 0))
	assert.Equal(t, 1, g.GetItemCountAt(1, 0))
	assert.Equal(t, 0, g.GetItemCountAt(2, 2))
	assert.Equal(t, [4]int32{0, 0, 5, 5}, g.GetBounds())

	ids := g.QueryItems(0, 0, 1.9, 0.9, 8)
	assert.ElementsMatch(t, []uint16{1, 2}, ids)
	assert.Len(t, g.QueryItems(0, 0, 1.9, 0.9, 1), 1)
	assert.Equal(t, []uint16{3}, g.QueryItems(4.5, 4.5, 6, 6, 8))

	g.Clear()
	assert.Empty(t, g.QueryItems(0, 0, 6, 6, 8))
}

func TestProximityGridPoolLimit(t *testing.T) {
	g := NewDtProximityGrid(2, 1)
	require.NotNil(t, g)
	// Covers four cells, only two fit in the pool.
	g.AddItem(7, 0.5, 0.5, 1.5, 1.5)
	n := 0
	for y := int32(0); y <= 1; y++ {
		for x := int32(0); x <= 1; x++ {
			n += g.GetItemCountAt(x, y)
		}
	}
	assert.Equal(t, 2, n)
}

func TestMergeCorridor(t *testing.T) {
	refs := func(v ...detour.DtPolyRef) []detour.DtPolyRef { return v }

	// Moved from 1 through 5 into 2: visited polys go first, reversed.
	got := DtMergeCorridorStartMoved(refs(1, 2, 3, 4), 16, refs(1, 5, 2))
	assert.Empty(t, cmp.Diff(refs(2, 3, 4), got))
	got = DtMergeCorridorStartMoved(refs(1, 2, 3), 16, refs(1, 9))
	assert.Empty(t, cmp.Diff(refs(9, 1, 2, 3), got))
	got = DtMergeCorridorStartMoved(refs(1, 2, 3), 16, refs(8, 9))
	assert.Empty(t, cmp.Diff(refs(1, 2, 3), got))
	got = DtMergeCorridorStartMoved(refs(1, 2, 3), 2, refs(1, 9))
	assert.Empty(t, cmp.Diff(refs(9, 1), got))

	got = DtMergeCorridorEndMoved(refs(1, 2, 3), 16, refs(3, 4, 5))
	assert.Empty(t, cmp.Diff(refs(1, 2, 3, 4, 5), got))
	got = DtMergeCorridorEndMoved(refs(1, 2, 3), 4, refs(3, 4, 5))
	assert.Empty(t, cmp.Diff(refs(1, 2, 3, 4), got))

	got = DtMergeCorridorStartShortcut(refs(1, 2, 3, 4, 5), 16, refs(1, 7, 4))
	assert.Empty(t, cmp.Diff(refs(1, 7, 4, 5), got))
	got = DtMergeCorridorStartShortcut(refs(1, 2, 3), 16, refs(1))
	assert.Empty(t, cmp.Diff(refs(1, 2, 3), got))
}

func TestPathCorridor(t *testing.T) {
	nav := buildTwoQuads(t)
	q, status := detour.NewDtNavMeshQuery(nav, 256)
	require.True(t, status.Succeed())
	filter := detour.NewDtQueryFilter()
	a, b := polyRefs(nav)

	c := NewDtPathCorridor(8)
	c.Reset(a, []float32{2, 0, 5})
	assert.Equal(t, a, c.GetFirstPoly())
	assert.Equal(t, a, c.GetLastPoly())
	assert.Equal(t, [3]float32{2, 0, 5}, c.GetTarget())

	c.SetCorridor([]float32{18, 0, 5}, []detour.DtPolyRef{a, b})
	verts, flags, _ := c.FindCorners(DT_CROWDAGENT_MAX_CORNERS, q)
	require.Len(t, flags, 1)
	assert.NotZero(t, flags[0]&detour.DT_STRAIGHTPATH_END)
	assert.InDelta(t, 18, verts[0], 1e-4)

	// Walking over the portal drops the first polygon.
	require.True(t, c.MovePosition([]float32{12, 0, 5}, q, filter))
	assert.Equal(t, []detour.DtPolyRef{b}, c.GetPath())
	assert.InDelta(t, 12, c.GetPos()[0], 1e-4)
	assert.True(t, c.IsValid(10, q, filter))

	// Moving the target back across the portal extends the end.
	require.True(t, c.MoveTargetPosition([]float32{5, 0, 5}, q, filter))
	assert.Equal(t, []detour.DtPolyRef{b, a}, c.GetPath())

	filter.SetExcludeFlags(1)
	assert.False(t, c.IsValid(10, q, filter))
	filter.SetExcludeFlags(0)

	c.FixPathStart(a, []float32{3, 0, 3})
	assert.Equal(t, []detour.DtPolyRef{a, 0, a}, c.GetPath())
	c.TrimInvalidPath(a, []float32{3, 0, 3}, q, filter)
	assert.Equal(t, []detour.DtPolyRef{a}, c.GetPath())
}

func TestPathQueue(t *testing.T) {
	nav := buildTwoQuads(t)
	a, b := polyRefs(nav)
	pq, status := NewDtPathQueue(32, 256, nav)
	require.True(t, status.Succeed())

	ref := pq.Request(a, b, []float32{2, 0, 5}, []float32{18, 0, 5}, detour.NewDtQueryFilter())
	require.NotEqual(t, DT_PATHQ_INVALID, ref)
	assert.Zero(t, pq.GetRequestStatus(ref))

	pq.Update(MAX_ITERS_PER_UPDATE)
	assert.True(t, pq.GetRequestStatus(ref).Succeed())

	path, status := pq.GetPathResult(ref)
	assert.True(t, status.Succeed())
	assert.Equal(t, []detour.DtPolyRef{a, b}, path)

	// The slot was freed by reading the result.
	assert.True(t, pq.GetRequestStatus(ref).Failed())
	_, status = pq.GetPathResult(ref)
	assert.True(t, status.Failed())
}

func TestPathQueueFull(t *testing.T) {
	nav := buildTwoQuads(t)
	a, b := polyRefs(nav)
	pq, status := NewDtPathQueue(32, 256, nav)
	require.True(t, status.Succeed())
	for i := 0; i < dtPathQueueMaxQueue; i++ {
		require.NotEqual(t, DT_PATHQ_INVALID, pq.Request(a, b, []float32{2, 0, 5}, []float32{18, 0, 5}, detour.NewDtQueryFilter()))
	}
	assert.Equal(t, DT_PATHQ_INVALID, pq.Request(a, b, []float32{2, 0, 5}, []float32{18, 0, 5}, detour.NewDtQueryFilter()))
}

func TestNewCrowdRejectsBadParams(t *testing.T) {
	nav := buildTwoQuads(t)
	_, status := NewDtCrowd(0, 0.6, nav)
	assert.True(t, status.Detail(detour.DT_INVALID_PARAM))
	_, status = NewDtCrowd(4, 0, nav)
	assert.True(t, status.Failed())
	_, status = NewDtCrowd(4, 0.6, nil)
	assert.True(t, status.Failed())
}

func TestCrowdAgentPool(t *testing.T) {
	crowd, _ := newTestCrowd(t, 2)
	assert.Equal(t, 2, crowd.GetAgentCount())

	i0 := crowd.AddAgent([]float32{2, 0.3, 5}, agentParams())
	i1 := crowd.AddAgent([]float32{100, 0, 100}, agentParams())
	require.Equal(t, 0, i0)
	require.Equal(t, 1, i1)
	assert.Equal(t, -1, crowd.AddAgent([]float32{3, 0, 5}, agentParams()))

	ag := crowd.GetAgent(i0)
	assert.Equal(t, DT_CROWDAGENT_STATE_WALKING, ag.State)
	assert.Equal(t, DT_CROWDAGENT_TARGET_NONE, ag.TargetState)
	assert.InDelta(t, 0, ag.Npos[1], 1e-4)

	// Too far from the mesh to be placed.
	assert.Equal(t, DT_CROWDAGENT_STATE_INVALID, crowd.GetAgent(i1).State)

	crowd.RemoveAgent(i1)
	assert.Len(t, crowd.GetActiveAgents(), 1)
	assert.Equal(t, 1, crowd.AddAgent([]float32{3, 0, 5}, agentParams()))
	assert.Nil(t, crowd.GetAgent(5))
}

func TestCrowdAgentReachesTarget(t *testing.T) {
	crowd, nav := newTestCrowd(t, 4)
	_, b := polyRefs(nav)
	idx := crowd.AddAgent([]float32{2, 0, 5}, agentParams())
	require.Equal(t, 0, idx)

	assert.False(t, crowd.RequestMoveTarget(idx, 0, []float32{18, 0, 5}))
	require.True(t, crowd.RequestMoveTarget(idx, b, []float32{18, 0, 5}))
	ag := crowd.GetAgent(idx)
	assert.Equal(t, DT_CROWDAGENT_TARGET_REQUESTING, ag.TargetState)

	crowd.Update(0.1, nil)
	assert.Equal(t, DT_CROWDAGENT_TARGET_VALID, ag.TargetState)
	require.Equal(t, 1, ag.CornerCount())
	assert.NotZero(t, ag.CornerFlags[0]&detour.DT_STRAIGHTPATH_END)
	assert.Greater(t, ag.Npos[0], float32(2))

	step(crowd, 100)
	assert.InDelta(t, 18, ag.Npos[0], 0.1)
	assert.InDelta(t, 5, ag.Npos[2], 0.1)
	assert.Equal(t, b, ag.Corridor.GetFirstPoly())
	assert.Less(t, common.Vlen(ag.Vel[:]), float32(0.1))
}

func TestCrowdVelocityRequest(t *testing.T) {
	crowd, _ := newTestCrowd(t, 4)
	params := agentParams()
	params.MaxAcceleration = 100
	idx := crowd.AddAgent([]float32{2, 0, 5}, params)
	require.True(t, crowd.RequestMoveVelocity(idx, []float32{1, 0, 0}))

	step(crowd, 10)
	ag := crowd.GetAgent(idx)
	assert.Equal(t, DT_CROWDAGENT_TARGET_VELOCITY, ag.TargetState)
	assert.InDelta(t, 3, ag.Npos[0], 0.05)
	assert.InDelta(t, 1, ag.Vel[0], 1e-3)
	assert.Equal(t, 1, ag.Corridor.GetPathCount())

	require.True(t, crowd.ResetMoveTarget(idx))
	assert.Equal(t, DT_CROWDAGENT_TARGET_NONE, ag.TargetState)
	assert.Equal(t, [3]float32{}, ag.Dvel)
	assert.False(t, crowd.ResetMoveTarget(9))
}

func TestCrowdCollisionPushesAgentsApart(t *testing.T) {
	crowd, _ := newTestCrowd(t, 4)
	i0 := crowd.AddAgent([]float32{5, 0, 5}, agentParams())
	i1 := crowd.AddAgent([]float32{5.2, 0, 5}, agentParams())

	crowd.Update(0.1, nil)
	a0, a1 := crowd.GetAgent(i0), crowd.GetAgent(i1)
	require.Len(t, a0.Neis, 1)
	assert.Equal(t, i1, a0.Neis[0].Idx)

	step(crowd, 5)
	assert.Greater(t, common.Vdist2D(a0.Npos[:], a1.Npos[:]), float32(0.9))
	assert.Less(t, a0.Npos[0], a1.Npos[0])
}

func TestCrowdTeleport(t *testing.T) {
	crowd, nav := newTestCrowd(t, 4)
	_, b := polyRefs(nav)
	idx := crowd.AddAgent([]float32{2, 0, 5}, agentParams())
	require.True(t, crowd.RequestMoveTarget(idx, b, []float32{18, 0, 5}))
	step(crowd, 3)

	require.True(t, crowd.TeleportAgent(idx, []float32{15, 0.5, 2}))
	ag := crowd.GetAgent(idx)
	assert.Equal(t, [3]float32{15, 0, 2}, ag.Npos)
	assert.Equal(t, DT_CROWDAGENT_TARGET_NONE, ag.TargetState)
	assert.Equal(t, b, ag.Corridor.GetFirstPoly())
	assert.Equal(t, [3]float32{}, ag.Vel)

	assert.False(t, crowd.TeleportAgent(3, []float32{1, 0, 1}))
}

func TestCrowdDebugInfo(t *testing.T) {
	crowd, nav := newTestCrowd(t, 4)
	_, b := polyRefs(nav)
	idx := crowd.AddAgent([]float32{2, 0, 5}, agentParams())
	require.True(t, crowd.RequestMoveTarget(idx, b, []float32{18, 0, 5}))

	debug := &DtCrowdAgentDebugInfo{Idx: idx}
	crowd.Update(0.1, debug)
	assert.Equal(t, [3]float32{2, 0, 5}, debug.OptStart)
	assert.InDelta(t, 18, debug.OptEnd[0], 1e-4)
}
