package xschema

import "sort"

// tupleRecord is one key tuple gathered during phase 1, tagged with
// enough context for phase 2 to group, order, and report on it.
type tupleRecord struct {
	Site        *ExtensionSite
	Tuple       KeyTuple
	Location    Location
	DocumentURI string
	Origin      Origin
}

// tupleLog is an append-only, per-worker-sharded collection of
// tupleRecords built during phase 1 (spec §4.I, §9: "sharded append log
// merged before phase 2"). Each instance pairing processed in phase 1 owns
// one shard, so no locking is needed during the parallel phase; merge runs once,
// sequentially, at the phase-1/phase-2 barrier.
type tupleLog struct {
	shards [][]tupleRecord
}

func newTupleLog(shardCount int) *tupleLog {
	return &tupleLog{shards: make([][]tupleRecord, shardCount)}
}

func (l *tupleLog) append(shard int, rec tupleRecord) {
	l.shards[shard] = append(l.shards[shard], rec)
}

// merge concatenates every shard, then sorts by (document source URI,
// then in-document order) to satisfy the deterministic ordering guarantee
// of spec §5.
func (l *tupleLog) merge() []tupleRecord {
	total := 0
	for _, s := range l.shards {
		total += len(s)
	}
	out := make([]tupleRecord, 0, total)
	for _, s := range l.shards {
		out = append(out, s...)
	}

	sortTupleRecords(out)

	return out
}

func sortTupleRecords(recs []tupleRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.DocumentURI != b.DocumentURI {
			return a.DocumentURI < b.DocumentURI
		}

		return a.Location.String() < b.Location.String()
	})
}
