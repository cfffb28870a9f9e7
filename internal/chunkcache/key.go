package chunkcache

import (
	"strconv"

	"github.com/voxelcore/voxelcore/internal/coord"
)

// redisKeyPrefix строит строковый ключ Redis из координаты чанка.
func redisKeyPrefix(c coord.ChunkCoord) string {
	return "chunk:" + strconv.FormatInt(int64(c.X), 10) + ":" +
		strconv.FormatInt(int64(c.Y), 10) + ":" +
		strconv.FormatInt(int64(c.Z), 10)
}
