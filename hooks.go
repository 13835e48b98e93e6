package redisdown

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; the store calls them on
// request paths. Wrap slow sinks with hooks/async.
type Hooks interface {
	// A backend client was dialed (shared=false for exclusive clients).
	ConnectionOpened(identity string, shared bool)

	// A store dropped its reference to a shared client; refs is what is left.
	ConnectionReleased(identity, location string, refs int)

	// A client owned by the store layer was torn down. err is the (swallowed)
	// teardown error, if any.
	ConnectionClosed(identity string, err error)

	// An iterator page came back from the order index.
	PageFetched(location string, members int, reverse bool)

	// A MULTI/EXEC block finished. commands counts queued commands.
	BatchExecuted(location string, commands int, err error)

	// An index member had no record when its page was hydrated.
	DanglingIndexEntry(location string, key []byte)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) ConnectionOpened(string, bool)          {}
func (NopHooks) ConnectionReleased(string, string, int) {}
func (NopHooks) ConnectionClosed(string, error)         {}
func (NopHooks) PageFetched(string, int, bool)          {}
func (NopHooks) BatchExecuted(string, int, error)       {}
func (NopHooks) DanglingIndexEntry(string, []byte)      {}
