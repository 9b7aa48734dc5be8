package recast

import "github.com/gorustyt/navbind/common"

// / Marks non-walkable spans as walkable if their maximum is within @p walkableClimb of the span below them.
func RcFilterLowHangingWalkableObstacles(ctx *RcContext, walkableClimb int32, hf *RcHeightfield) {
	ctx.StartTimer(RC_TIMER_FILTER_LOW_OBSTACLES)
	defer ctx.StopTimer(RC_TIMER_FILTER_LOW_OBSTACLES)

	for _, column := range hf.Spans {
		var previousSpan *RcSpan
		previousWasWalkable := false
		previousArea := uint8(RC_NULL_AREA)
		for span := column; span != nil; span = span.Next {
			walkable := span.Area != RC_NULL_AREA
			// If current span is not walkable, but there is walkable
			// span just below it, mark the span above it walkable too.
			if !walkable && previousWasWalkable {
				if common.Abs(span.Smax-previousSpan.Smax) <= walkableClimb {
					span.Area = previousArea
				}
			}
			// Copy walkable flag so that it cannot propagate
			// past multiple non-walkable objects.
			previousWasWalkable = walkable
			previousArea = span.Area
			previousSpan = span
		}
	}
}

// / Marks spans that are ledges as not-walkable.
func RcFilterLedgeSpans(ctx *RcContext, walkableHeight, walkableClimb int32, hf *RcHeightfield) {
	ctx.StartTimer(RC_TIMER_FILTER_BORDER)
	defer ctx.StopTimer(RC_TIMER_FILTER_BORDER)

	xSize := hf.Width
	zSize := hf.Height
	for z := int32(0); z < zSize; z++ {
		for x := int32(0); x < xSize; x++ {
			for span := hf.Spans[x+z*xSize]; span != nil; span = span.Next {
				// Skip non walkable spans.
				if span.Area == RC_NULL_AREA {
					continue
				}
				bot := span.Smax
				top := int32(rcMaxHeight)
				if span.Next != nil {
					top = span.Next.Smin
				}
				// Find neighbours minimum height.
				minNeighborHeight := int32(rcMaxHeight)
				// Min and max height of accessible neighbours.
				accessibleMin := span.Smax
				accessibleMax := span.Smax

				for direction := int32(0); direction < 4; direction++ {
					dx := x + common.GetDirOffsetX(direction)
					dz := z + common.GetDirOffsetY(direction)
					// Skip neighbours which are out of bounds.
					if dx < 0 || dz < 0 || dx >= xSize || dz >= zSize {
						minNeighborHeight = min(minNeighborHeight, -walkableClimb-bot)
						continue
					}
					// From minus infinity to the first span.
					neighborSpan := hf.Spans[dx+dz*xSize]
					neighborBot := -walkableClimb
					neighborTop := int32(rcMaxHeight)
					if neighborSpan != nil {
						neighborTop = neighborSpan.Smin
					}
					// Skip neighbour if the gap between the spans is too small.
					if min(top, neighborTop)-max(bot, neighborBot) > walkableHeight {
						minNeighborHeight = min(minNeighborHeight, neighborBot-bot)
					}
					// Rest of the spans.
					for ; neighborSpan != nil; neighborSpan = neighborSpan.Next {
						neighborBot = neighborSpan.Smax
						neighborTop = int32(rcMaxHeight)
						if neighborSpan.Next != nil {
							neighborTop = neighborSpan.Next.Smin
						}
						if min(top, neighborTop)-max(bot, neighborBot) > walkableHeight {
							minNeighborHeight = min(minNeighborHeight, neighborBot-bot)
							// Find min/max accessible neighbour height.
							if common.Abs(neighborBot-bot) <= walkableClimb {
								accessibleMin = min(accessibleMin, neighborBot)
								accessibleMax = max(accessibleMax, neighborBot)
							}
						}
					}
				}

				// The current span is close to a ledge if the drop to any
				// neighbour span is less than the walkableClimb.
				if minNeighborHeight < -walkableClimb {
					span.Area = RC_NULL_AREA
				} else if accessibleMax-accessibleMin > walkableClimb {
					// If the difference between all neighbours is too large,
					// we are at steep slope, mark the span as ledge.
					span.Area = RC_NULL_AREA
				}
			}
		}
	}
}

// / Marks walkable spans as not walkable if the clearance above the span is less than the specified height.
func RcFilterWalkableLowHeightSpans(ctx *RcContext, walkableHeight int32, hf *RcHeightfield) {
	ctx.StartTimer(RC_TIMER_FILTER_WALKABLE)
	defer ctx.StopTimer(RC_TIMER_FILTER_WALKABLE)

	// Remove walkable flag from spans which do not have enough
	// space above them for the agent to stand there.
	for _, column := range hf.Spans {
		for span := column; span != nil; span = span.Next {
			bot := span.Smax
			top := int32(rcMaxHeight)
			if span.Next != nil {
				top = span.Next.Smin
			}
			if top-bot < walkableHeight {
				span.Area = RC_NULL_AREA
			}
		}
	}
}
