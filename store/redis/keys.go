package redis

// All keys share the "startflow:" prefix.
const keyPrefix = "startflow:"

// runKey returns the hash key for a run: startflow:run:{id}
func runKey(id string) string { return keyPrefix + "run:" + id }

// runIndexKey is the sorted set of run IDs scored by creation time.
const runIndexKey = keyPrefix + "runs"

// checkpointKey returns the hash key for a checkpoint: startflow:checkpoint:{runID}:{step}
func checkpointKey(runID, step string) string {
	return keyPrefix + "checkpoint:" + runID + ":" + step
}

// checkpointIndexKey is the sorted set of step names of a run, scored by
// first save.
func checkpointIndexKey(runID string) string {
	return keyPrefix + "checkpoint_idx:" + runID
}

// checkpointSeqKey is the counter that orders checkpoint saves.
const checkpointSeqKey = keyPrefix + "checkpoint_seq"
