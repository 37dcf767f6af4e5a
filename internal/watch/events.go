package watch

import "github.com/dshills/eventcore/internal/event"

// Source is the Metadata.Source of every event produced by a Watcher.
const Source = "watch"

// FileCreated is published when a file or directory appears.
type FileCreated struct {
	event.Metadata
	Path  string
	IsDir bool
}

// FileWritten is published when a file's contents change.
type FileWritten struct {
	event.Metadata
	Path string
}

// FileRemoved is published when a file or directory is deleted.
type FileRemoved struct {
	event.Metadata
	Path string
}

// FileRenamed is published for the old name of a renamed path. The new
// name arrives as a separate FileCreated.
type FileRenamed struct {
	event.Metadata
	Path string
}

// Bindings returns the bindings for every file event type, for use with
// dispatch.WithBinder or container.Declare.
func Bindings() []event.Binding {
	return []event.Binding{
		event.Bind[FileCreated](),
		event.Bind[FileWritten](),
		event.Bind[FileRemoved](),
		event.Bind[FileRenamed](),
	}
}
