package collab

import "hash/fnv"

// cursorPalette is the fixed set of collaboration cursor colors. It is
// immutable configuration: the same user id always hashes to the same color
// across sessions and processes.
var cursorPalette = [...]string{
	"#958DF1",
	"#F98181",
	"#FBBC88",
	"#FAF594",
	"#70CFF8",
	"#94FADB",
	"#B9F18D",
	"#C3E2C2",
}

// CursorColor deterministically selects a cursor color for a user id.
func CursorColor(userID string) string {
	digest := fnv.New32a()
	digest.Write([]byte(userID))
	return cursorPalette[digest.Sum32()%uint32(len(cursorPalette))]
}
