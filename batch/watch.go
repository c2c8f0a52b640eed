package batch

import (
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/dstar-tools/imageprep/images"
)

// debounceDelay coalesces the burst of write events a file copy produces
// into a single conversion, and gives the writer time to finish.
const debounceDelay = 500 * time.Millisecond

// Watcher monitors a directory and converts image files as they appear.
type Watcher struct {
	processor *Processor
	watcher   *fsnotify.Watcher
	dir       string

	mu       sync.Mutex
	debounce map[string]*time.Timer
	done     chan struct{}
}

// NewWatcher creates a watcher that feeds new files in dir through the
// processor.
//
// Arguments:
// - processor: The configured batch processor.
// - dir: The directory to monitor (non-recursive).
//
// Returns:
// - *Watcher: The watcher; call Start to begin monitoring.
// - error: An error if the fsnotify watcher cannot be created.
func NewWatcher(processor *Processor, dir string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	return &Watcher{
		processor: processor,
		watcher:   fsWatcher,
		dir:       dir,
		debounce:  make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}, nil
}

// Start begins monitoring. Events are processed on a background goroutine
// until Close is called.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return errors.Wrapf(err, "failed to watch folder %s", w.dir)
	}
	log.Printf("Watching folder: %s", w.dir)

	go w.processEvents()
	return nil
}

// Close stops monitoring and releases the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

// processEvents handles fsnotify events, debouncing rapid successive writes
// to the same file before converting it.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !images.IsSupportedPath(event.Name) {
				continue
			}
			w.schedule(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// schedule arms (or re-arms) the debounce timer for a path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Reset(debounceDelay)
		return
	}
	w.debounce[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.debounce, path)
		w.mu.Unlock()

		if _, err := w.processor.File(path); err != nil {
			log.Printf("FAIL %s: %v", path, err)
		}
	})
}
