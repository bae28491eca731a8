// Package terrain creates the static shapes the physics bridge turns into
// fixed bodies.
package terrain

import (
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
)

// CreateWall adds an axis-aligned box centred on (x, y).
func CreateWall(w *storage.World, x, y, width, height float64) models.Entity {
	return CreateBox(w, x, y, width, height, 0)
}

// CreateBox adds a box centred on (x, y) rotated by radian.
func CreateBox(w *storage.World, x, y, width, height, radian float64) models.Entity {
	e := w.Create()
	storage.Assign(w, e, models.Name{Value: "wall"})
	storage.Assign(w, e, models.Position{Vec2: models.V(x, y)})
	storage.Assign(w, e, models.Rotation{Radian: radian})
	storage.Assign(w, e, models.TerrainData{Kind: models.TerrainBox, Args: [4]float64{width, height}})
	return e
}

// CreateObstacle adds a round obstacle of radius r centred on (x, y).
func CreateObstacle(w *storage.World, x, y, r float64) models.Entity {
	e := w.Create()
	storage.Assign(w, e, models.Name{Value: "obstacle"})
	storage.Assign(w, e, models.Position{Vec2: models.V(x, y)})
	storage.Assign(w, e, models.Rotation{})
	storage.Assign(w, e, models.TerrainData{Kind: models.TerrainCircle, Args: [4]float64{r}})
	return e
}
