package requestlog

// Logger is the minimal interface for recording entries.
type Logger interface {
	Log(entry *Entry)
}

// Store defines request history storage.
type Store interface {
	Logger

	// Get retrieves an entry by ID.
	Get(id string) *Entry

	// List returns entries newest first, optionally filtered. An invalid filter yields no
	// entries; use Filter.Validate to report the problem.
	List(filter *Filter) []*Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of entries.
	Count() int
}

// ServiceStore is a Store that can operate on the entries of one service.
type ServiceStore interface {
	Store

	// ClearByService removes the entries of the named service.
	ClearByService(service string)

	// CountByService returns the number of entries of the named service.
	CountByService(service string) int
}
