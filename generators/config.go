package generators

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/gorustyt/navbind/recast"
)

// / RecastConfig holds the build settings in world units.
// / Fields omitted from a JSON file keep the values of DefaultRecastConfig.
type RecastConfig struct {
	Cs                     float32 `json:"cs"`
	Ch                     float32 `json:"ch"`
	WalkableSlopeAngle     float32 `json:"walkableSlopeAngle"`
	WalkableHeight         float32 `json:"walkableHeight"`
	WalkableClimb          float32 `json:"walkableClimb"`
	WalkableRadius         float32 `json:"walkableRadius"`
	MaxEdgeLen             float32 `json:"maxEdgeLen"`
	MaxSimplificationError float32 `json:"maxSimplificationError"`
	MinRegionArea          int32   `json:"minRegionArea"`
	MergeRegionArea        int32   `json:"mergeRegionArea"`
	MaxVertsPerPoly        int32   `json:"maxVertsPerPoly"`
	DetailSampleDist       float32 `json:"detailSampleDist"`
	DetailSampleMaxError   float32 `json:"detailSampleMaxError"`

	// Tiled and tile cache builds.
	TileSize   int32 `json:"tileSize"`
	BorderSize int32 `json:"borderSize"`

	// Tile cache builds.
	ExpectedLayersPerTile int32 `json:"expectedLayersPerTile"`
	MaxObstacles          int32 `json:"maxObstacles"`
}

func DefaultRecastConfig() RecastConfig {
	return RecastConfig{
		Cs:                     0.2,
		Ch:                     0.2,
		WalkableSlopeAngle:     60,
		WalkableHeight:         2,
		WalkableClimb:          2,
		WalkableRadius:         0.5,
		MaxEdgeLen:             12,
		MaxSimplificationError: 1.3,
		MinRegionArea:          8,
		MergeRegionArea:        20,
		MaxVertsPerPoly:        6,
		DetailSampleDist:       6,
		DetailSampleMaxError:   1,
		TileSize:               32,
		BorderSize:             0,
		ExpectedLayersPerTile:  4,
		MaxObstacles:           128,
	}
}

func (c *RecastConfig) Validate() error {
	if c.Cs <= 0 {
		return fmt.Errorf("cs must be positive, got %f", c.Cs)
	}
	if c.Ch <= 0 {
		return fmt.Errorf("ch must be positive, got %f", c.Ch)
	}
	if c.MaxVertsPerPoly < 3 || c.MaxVertsPerPoly > 6 {
		return fmt.Errorf("maxVertsPerPoly must be between 3 and 6, got %d", c.MaxVertsPerPoly)
	}
	if c.TileSize <= 0 {
		return fmt.Errorf("tileSize must be positive, got %d", c.TileSize)
	}
	if c.WalkableSlopeAngle < 0 || c.WalkableSlopeAngle >= 90 {
		return fmt.Errorf("walkableSlopeAngle must be in [0, 90), got %f", c.WalkableSlopeAngle)
	}
	if c.WalkableHeight < 0 || c.WalkableClimb < 0 || c.WalkableRadius < 0 {
		return fmt.Errorf("agent dimensions must be non-negative")
	}
	if c.ExpectedLayersPerTile <= 0 {
		return fmt.Errorf("expectedLayersPerTile must be positive, got %d", c.ExpectedLayersPerTile)
	}
	if c.MaxObstacles < 0 {
		return fmt.Errorf("maxObstacles must be non-negative, got %d", c.MaxObstacles)
	}
	return nil
}

// LoadConfig reads a JSON build config on top of the defaults.
// The file must have a .json extension and be at most 1MB.
func LoadConfig(path string) (RecastConfig, error) {
	cfg := DefaultRecastConfig()
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// / Converts to voxel units. Agent height and radius round up, climb rounds down,
// / region areas are squared and the detail sample values are scaled by the cell size.
// / Width, Height and the bounds are left for the caller.
func (c *RecastConfig) ToRcConfig() recast.RcConfig {
	sampleDist := float32(0)
	if c.DetailSampleDist >= 0.9 {
		sampleDist = c.Cs * c.DetailSampleDist
	}
	return recast.RcConfig{
		TileSize:               c.TileSize,
		BorderSize:             c.BorderSize,
		Cs:                     c.Cs,
		Ch:                     c.Ch,
		WalkableSlopeAngle:     c.WalkableSlopeAngle,
		WalkableHeight:         int32(math.Ceil(float64(c.WalkableHeight / c.Ch))),
		WalkableClimb:          int32(math.Floor(float64(c.WalkableClimb / c.Ch))),
		WalkableRadius:         int32(math.Ceil(float64(c.WalkableRadius / c.Cs))),
		MaxEdgeLen:             int32(c.MaxEdgeLen / c.Cs),
		MaxSimplificationError: c.MaxSimplificationError,
		MinRegionArea:          c.MinRegionArea * c.MinRegionArea,
		MergeRegionArea:        c.MergeRegionArea * c.MergeRegionArea,
		MaxVertsPerPoly:        c.MaxVertsPerPoly,
		DetailSampleDist:       sampleDist,
		DetailSampleMaxError:   c.Ch * c.DetailSampleMaxError,
	}
}
