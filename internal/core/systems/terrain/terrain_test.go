package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
)

func TestCreateShapes(t *testing.T) {
	w := storage.NewWorld()
	wall := CreateWall(w, 1, -2, 0.5, 4)
	rock := CreateObstacle(w, 3, 3, 1.5)

	data, err := storage.Get[models.TerrainData](w, wall)
	require.NoError(t, err)
	assert.Equal(t, models.TerrainBox, data.Kind)
	assert.Equal(t, [4]float64{0.5, 4, 0, 0}, data.Args)

	data, err = storage.Get[models.TerrainData](w, rock)
	require.NoError(t, err)
	assert.Equal(t, models.TerrainCircle, data.Kind)
	assert.Equal(t, 1.5, data.Args[0])

	assert.Equal(t, 2, len(storage.Collect(storage.View2[models.Position, models.TerrainData](w))))
	assert.False(t, storage.Has[models.Hitbox](w, wall), "terrain is never dynamic")
}
