package indexer

// Stats counts the outcome of one delivery pass.
type Stats struct {
	// Delivered is the number of tasks applied to the index and removed from the outbox.
	Delivered int `json:"delivered"`
	// Converted is the number of upserts delivered as deletes because the row was gone.
	Converted int `json:"converted"`
	// Rescheduled is the number of tasks that failed and were pushed back.
	Rescheduled int `json:"rescheduled"`
}

// Attempted returns how many tasks the pass touched.
func (s Stats) Attempted() int {
	return s.Delivered + s.Rescheduled
}
