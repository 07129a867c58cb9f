package memutils

import "github.com/launchdarkly/go-jsonstream/v3/jwriter"

// Statistics summarizes the records held by one or more record stores
type Statistics struct {
	// RecordCount is the number of live records, canonical records and stubs alike
	RecordCount int
	// StubCount is the number of live records that have been forwarded and are waiting to be resolved
	StubCount int
	// RecordBytes is the number of payload bytes held by live records
	RecordBytes int
	// FreeSlotCount is the number of slots that have been allocated from the runtime but are not in use
	FreeSlotCount int
}

func (s *Statistics) Clear() {
	s.RecordCount = 0
	s.StubCount = 0
	s.RecordBytes = 0
	s.FreeSlotCount = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.RecordCount += other.RecordCount
	s.StubCount += other.StubCount
	s.RecordBytes += other.RecordBytes
	s.FreeSlotCount += other.FreeSlotCount
}

// DetailedStatistics adds lifetime counters to Statistics
type DetailedStatistics struct {
	Statistics
	// AllocationCount is the number of records ever allocated
	AllocationCount int
	// FreeCount is the number of records ever freed
	FreeCount int
	// RelocationCount is the number of successful relocation requests
	RelocationCount int
	// MigrationCount is the number of payloads moved from a stub into its canonical record
	MigrationCount int
	// BytesMoved is the number of payload bytes moved by migrations
	BytesMoved int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.AllocationCount = 0
	s.FreeCount = 0
	s.RelocationCount = 0
	s.MigrationCount = 0
	s.BytesMoved = 0
}

func (s *DetailedStatistics) AddAllocation() {
	s.AllocationCount++
}

func (s *DetailedStatistics) AddFree() {
	s.FreeCount++
}

func (s *DetailedStatistics) AddRelocation() {
	s.RelocationCount++
}

func (s *DetailedStatistics) AddMigration(size int) {
	s.MigrationCount++
	s.BytesMoved += size
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.AllocationCount += other.AllocationCount
	s.FreeCount += other.FreeCount
	s.RelocationCount += other.RelocationCount
	s.MigrationCount += other.MigrationCount
	s.BytesMoved += other.BytesMoved
}

// PrintJson writes these statistics as the fields of a json object
func (s *DetailedStatistics) PrintJson(json *jwriter.ObjectState) {
	json.Name("Records").Int(s.RecordCount)
	json.Name("Stubs").Int(s.StubCount)
	json.Name("RecordBytes").Int(s.RecordBytes)
	json.Name("FreeSlots").Int(s.FreeSlotCount)
	json.Name("Allocations").Int(s.AllocationCount)
	json.Name("Frees").Int(s.FreeCount)
	json.Name("Relocations").Int(s.RelocationCount)
	json.Name("Migrations").Int(s.MigrationCount)
	json.Name("BytesMoved").Int(s.BytesMoved)
}
