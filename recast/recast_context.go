package recast

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// / Recast log categories.
type RcLogCategory int

const (
	RC_LOG_PROGRESS RcLogCategory = iota + 1 ///< A progress log entry.
	RC_LOG_WARNING                           ///< A warning log entry.
	RC_LOG_ERROR                             ///< An error log entry.
)

// / Recast performance timer categories.
type RcTimerLabel int

const (
	RC_TIMER_TOTAL RcTimerLabel = iota
	RC_TIMER_TEMP
	RC_TIMER_RASTERIZE_TRIANGLES
	RC_TIMER_BUILD_COMPACTHEIGHTFIELD
	RC_TIMER_BUILD_CONTOURS
	RC_TIMER_BUILD_CONTOURS_TRACE
	RC_TIMER_BUILD_CONTOURS_SIMPLIFY
	RC_TIMER_FILTER_BORDER
	RC_TIMER_FILTER_WALKABLE
	RC_TIMER_FILTER_LOW_OBSTACLES
	RC_TIMER_BUILD_POLYMESH
	RC_TIMER_MERGE_POLYMESH
	RC_TIMER_ERODE_AREA
	RC_TIMER_MARK_BOX_AREA
	RC_TIMER_MARK_CYLINDER_AREA
	RC_TIMER_MARK_CONVEXPOLY_AREA
	RC_TIMER_BUILD_DISTANCEFIELD
	RC_TIMER_BUILD_REGIONS
	RC_TIMER_BUILD_POLYMESHDETAIL
	RC_TIMER_BUILD_LAYERS
	RC_MAX_TIMERS
)

var timerNames = [RC_MAX_TIMERS]string{
	"total", "temp", "rasterize_triangles", "build_compact_heightfield", "build_contours",
	"build_contours_trace", "build_contours_simplify", "filter_border", "filter_walkable",
	"filter_low_obstacles", "build_polymesh", "merge_polymesh", "erode_area", "mark_box_area",
	"mark_cylinder_area", "mark_convexpoly_area", "build_distancefield", "build_regions",
	"build_polymeshdetail", "build_layers",
}

func (l RcTimerLabel) String() string {
	if l < 0 || l >= RC_MAX_TIMERS {
		return "unknown"
	}
	return timerNames[l]
}

// / Provides an interface for optional logging and performance tracking of the Recast
// / build process. A nil *RcContext is valid and does nothing.
type RcContext struct {
	logger     *zap.Logger
	logEnabled bool
	timers     bool
	start      [RC_MAX_TIMERS]time.Time
	acc        [RC_MAX_TIMERS]time.Duration
}

func NewRcContext(logger *zap.Logger, timers bool) *RcContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RcContext{logger: logger, logEnabled: true, timers: timers}
}

func (ctx *RcContext) EnableLog(state bool) {
	if ctx != nil {
		ctx.logEnabled = state
	}
}

func (ctx *RcContext) Log(category RcLogCategory, format string, args ...any) {
	if ctx == nil || !ctx.logEnabled {
		return
	}
	msg := fmt.Sprintf(format, args...)
	switch category {
	case RC_LOG_ERROR:
		ctx.logger.Error(msg)
	case RC_LOG_WARNING:
		ctx.logger.Warn(msg)
	default:
		ctx.logger.Debug(msg)
	}
}

func (ctx *RcContext) Errorf(format string, args ...any) {
	ctx.Log(RC_LOG_ERROR, format, args...)
}

func (ctx *RcContext) Warnf(format string, args ...any) {
	ctx.Log(RC_LOG_WARNING, format, args...)
}

func (ctx *RcContext) ResetTimers() {
	if ctx == nil {
		return
	}
	ctx.acc = [RC_MAX_TIMERS]time.Duration{}
}

func (ctx *RcContext) StartTimer(label RcTimerLabel) {
	if ctx == nil || !ctx.timers {
		return
	}
	ctx.start[label] = time.Now()
}

func (ctx *RcContext) StopTimer(label RcTimerLabel) {
	if ctx == nil || !ctx.timers || ctx.start[label].IsZero() {
		return
	}
	ctx.acc[label] += time.Since(ctx.start[label])
	ctx.start[label] = time.Time{}
}

// / Returns the total accumulated time of the specified performance timer.
// / Returns -1 when timers are disabled.
func (ctx *RcContext) GetAccumulatedTime(label RcTimerLabel) time.Duration {
	if ctx == nil || !ctx.timers {
		return -1
	}
	return ctx.acc[label]
}

// Timings returns the non zero timers keyed by name.
func (ctx *RcContext) Timings() map[string]time.Duration {
	res := map[string]time.Duration{}
	if ctx == nil || !ctx.timers {
		return res
	}
	for i, d := range ctx.acc {
		if d > 0 {
			res[RcTimerLabel(i).String()] = d
		}
	}
	return res
}
