package assets

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/keyframe/engine/core"
)

type AssetType int

const (
	AssetTypeNone AssetType = iota
	AssetTypeModel
	AssetTypeTexture
	AssetTypeShader
	AssetTypeAnimation
	AssetTypeScene
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeModel:
		return "model"
	case AssetTypeTexture:
		return "texture"
	case AssetTypeShader:
		return "shader"
	case AssetTypeAnimation:
		return "animation"
	case AssetTypeScene:
		return "scene"
	default:
		return "none"
	}
}

type AssetInfo struct {
	Path        string
	Type        AssetType
	LastChanged time.Time
}

var ErrWatcherClosed = errors.New("asset watcher already closed")

// Watcher indexes every known asset below a root directory and keeps the index
// current with fsnotify. Created or written files are announced on the event
// bus as core.EventAssetChanged.
type Watcher struct {
	assets map[string]AssetInfo
	mutex  sync.RWMutex

	events   *core.Events
	fsnotify *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	isClosed bool
}

func NewWatcher(events *core.Events) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		assets:   make(map[string]AssetInfo),
		events:   events,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}, nil
}

// Watch indexes root and all of its sub-directories and starts listening for changes.
func (w *Watcher) Watch(root string) error {
	if w.isClosed {
		return ErrWatcherClosed
	}
	if err := w.watchRecursive(root, false); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.start()
	return nil
}

// Lookup returns the index entry for path.
func (w *Watcher) Lookup(path string) (AssetInfo, bool) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	info, ok := w.assets[filepath.Clean(path)]
	return info, ok
}

// Assets lists the indexed files of the given type sorted by path.
func (w *Watcher) Assets(t AssetType) []AssetInfo {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	var out []AssetInfo
	for _, a := range w.assets {
		if a.Type == t {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b AssetInfo) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// Shutdown stops the watch loop and releases the inotify handles.
func (w *Watcher) Shutdown() error {
	if w.isClosed {
		return nil
	}
	w.isClosed = true
	close(w.done)
	w.wg.Wait()
	return w.fsnotify.Close()
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			w.handle(e)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s.IsDir() {
		if e.Op&fsnotify.Create != 0 {
			if err := w.watchRecursive(e.Name, false); err != nil {
				core.LogWarn("failed to watch %s: %s", e.Name, err)
			}
		}
		return
	}
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if w.index(e.Name) {
			w.events.Fire(core.Event{Code: core.EventAssetChanged, Path: filepath.Clean(e.Name)})
		}
	}
	// A removed path cannot be stat'ed, so it is dropped from both the index
	// and the watch list regardless of what it was.
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.removeAsset(e.Name)
		_ = w.fsnotify.Remove(e.Name)
	}
}

// watchRecursive adds all directories under path to the watch list and indexes their files.
func (w *Watcher) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return w.fsnotify.Remove(walkPath)
			}
			return w.fsnotify.Add(walkPath)
		}
		w.index(walkPath)
		return nil
	})
}

// index records path when it is a known asset type and reports whether it did.
func (w *Watcher) index(path string) bool {
	assetType := DetermineAssetType(path)
	if assetType == AssetTypeNone {
		return false
	}
	path = filepath.Clean(path)

	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.assets[path] = AssetInfo{
		Path:        path,
		Type:        assetType,
		LastChanged: time.Now(),
	}
	return true
}

func (w *Watcher) removeAsset(path string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	delete(w.assets, filepath.Clean(path))
}

// DetermineAssetType classifies a file by extension. glTF files below an
// "animations" directory are clips, everywhere else they are models.
func DetermineAssetType(path string) AssetType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spv":
		return AssetTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return AssetTypeTexture
	case ".gltf", ".glb":
		for _, dir := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
			if dir == "animations" {
				return AssetTypeAnimation
			}
		}
		return AssetTypeModel
	case ".json":
		return AssetTypeScene
	default:
		return AssetTypeNone
	}
}
