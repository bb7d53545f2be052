package broker

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// Partition maps a device id onto one of count partitions. The hash is pinned
// to FNV-1a/32 over the UUID's 16 raw bytes so that producers written in other
// languages can compute the same placement. All events for one device land in
// one partition, which is what gives the pipeline per-device ordering.
func Partition(id uuid.UUID, count int32) int32 {
	h := fnv.New32a()
	h.Write(id[:])
	return int32(h.Sum32() % uint32(count))
}
