package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"budget-buddy-backend/internal/constants"
	"budget-buddy-backend/internal/models"
	"budget-buddy-backend/internal/services/upload"

	"github.com/fsnotify/fsnotify"
)

// Watcher submits receipt files dropped into configured folders as upload
// jobs, so scans synced from a phone get processed without touching the API.
type Watcher struct {
	jobs     *upload.Service
	roots    []string
	debounce time.Duration

	// The debounce timer fires on its own goroutine, so the pending set is
	// shared between the event loop and the timer callback.
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

func NewWatcher(jobs *upload.Service, roots []string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		jobs:     jobs,
		roots:    roots,
		debounce: debounce,
		pending:  map[string]struct{}{},
	}
}

// Start watches the roots recursively until ctx is done.
func (wt *Watcher) Start(ctx context.Context) error {
	if len(wt.roots) == 0 {
		return errors.New("no watch roots configured")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	for _, root := range wt.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return w.Add(path)
			}
			return nil
		})
		if err != nil {
			_ = w.Close()
			return err
		}
	}

	go wt.run(ctx, w)
	return nil
}

func (wt *Watcher) run(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-w.Events:
			if !ok {
				return
			}
			if e.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
					if err := w.Add(e.Name); err != nil {
						log.Printf("watch new directory %s: %v", e.Name, err)
					}
					continue
				}
			}
			if !allowedPath(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			wt.schedule(e.Name)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

// schedule queues a path and re-arms the debounce timer. Stopping the timer
// does not cancel a callback that already started, so flush takes the lock
// too instead of assuming it runs alone.
func (wt *Watcher) schedule(path string) {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	wt.pending[path] = struct{}{}
	if wt.timer != nil {
		wt.timer.Stop()
	}
	wt.timer = time.AfterFunc(wt.debounce, wt.flush)
}

// flush drains the pending set and submits each path outside the lock.
func (wt *Watcher) flush() {
	wt.mu.Lock()
	paths := make([]string, 0, len(wt.pending))
	for path := range wt.pending {
		paths = append(paths, path)
	}
	wt.pending = map[string]struct{}{}
	wt.mu.Unlock()

	for _, path := range paths {
		wt.submit(path)
	}
}

func (wt *Watcher) submit(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("read watched file %s: %v", path, err)
		return
	}
	input := models.SubmittedInput{
		Kind:        models.InputFile,
		Filename:    filepath.Base(path),
		ContentType: constants.ContentTypeForExt(filepath.Ext(path)),
		Data:        data,
	}
	id, err := wt.jobs.CreateJob([]models.SubmittedInput{input}, models.ExtractOptions{
		AllowedCategories: constants.DefaultCategories(),
	})
	if err != nil {
		log.Printf("submit watched file %s: %v", path, err)
		return
	}
	log.Printf("watched file %s submitted as job %s", filepath.Base(path), id)
}

func allowedPath(path string) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	_, ok := constants.AllowedExtensions[ext]
	return ok
}
