package events

// EventHandler is the interface of the call back function for receiveing events.
type EventHandler func(Event)

// Event is used to type restrict the Events
type Event interface {
	isEvent()
}

// Trace is useful to see some details of what's going on
type Trace struct {
	ID      string
	Message string
	event
}

// FetchStart indicates that a remote reference is being downloaded. It is
// sent once per URL per session.
type FetchStart struct {
	URL string
	event
}

// Output indicates that data and template were resolved for a destination
// and rendering is starting.
type Output struct {
	Dest string
	event
}

// Rendered indicates that a destination file was written.
type Rendered struct {
	Dest     string
	Template string
	// Source describes where the data came from; "" for inline data.
	Source string
	// Object is false when the resolved data was not an object. This is a
	// warning, not a failure.
	Object bool
	// Keys is the number of keys (or elements) of object data.
	Keys int
	// Changed is false when Dest already held the rendered contents.
	Changed bool
	event
}

// RenderFailed indicates that rendering a destination failed. Nothing was
// written to Dest.
type RenderFailed struct {
	Dest  string
	Error error
	event
}

// DataWarning flags suspicious but usable data, such as a JavaScript module
// that exports nothing.
type DataWarning struct {
	Path    string
	Message string
	event
}

// NothingToDo indicates that a batch had no entries after expansion.
type NothingToDo struct {
	event
}

// BatchComplete indicates that every entry of a batch rendered.
type BatchComplete struct {
	Count int
	event
}

// Event interface type fulfillment
type event struct{}

func (event) isEvent() {}
