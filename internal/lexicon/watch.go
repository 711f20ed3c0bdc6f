package lexicon

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/valpere/peredisc/internal/logger"
)

// Watcher keeps the compiled table of a lexicon file current. A change to
// the file is compiled and published atomically; a file that fails to
// compile leaves the previous table in place.
type Watcher struct {
	v        *viper.Viper
	current  atomic.Pointer[Table]
	onReload func(*Table, error)
	log      *slog.Logger
}

// NewWatcher loads and compiles path. Call Start to follow later edits.
// onReload, if non-nil, is called after every reload attempt.
func NewWatcher(path string, onReload func(*Table, error)) (*Watcher, error) {
	w := &Watcher{
		v:        viper.New(),
		onReload: onReload,
		log:      logger.WithComponent("lexicon").With("path", path),
	}
	w.v.SetConfigFile(path)

	t, err := w.load()
	if err != nil {
		return nil, err
	}
	w.current.Store(t)
	return w, nil
}

// Start begins watching the file for changes.
func (w *Watcher) Start() {
	w.v.OnConfigChange(w.reload)
	w.v.WatchConfig()
}

// Table returns the most recently compiled table.
func (w *Watcher) Table() *Table {
	return w.current.Load()
}

func (w *Watcher) load() (*Table, error) {
	lex, err := read(w.v)
	if err != nil {
		return nil, err
	}
	t, err := Compile(lex)
	if err != nil {
		return nil, fmt.Errorf("failed to compile lexicon %s: %w", w.v.ConfigFileUsed(), err)
	}
	return t, nil
}

func (w *Watcher) reload(e fsnotify.Event) {
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		w.log.Warn("lexicon file went away, keeping current table", "op", e.Op.String())
		return
	}
	t, err := w.load()
	if err != nil {
		w.log.Error("lexicon reload failed, keeping current table", "error", err)
	} else {
		w.current.Store(t)
		w.log.Info("lexicon reloaded", "rules", t.Len())
	}
	if w.onReload != nil {
		w.onReload(t, err)
	}
}
