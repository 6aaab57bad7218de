package configwatcher

import (
	"codeleap_backend/internal/config"
	"codeleap_backend/pkg/logger"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = time.Second

type ConfigReloader func(cfg *config.Config)

// WatchConfig 监听配置文件变更并防抖重载，限流窗口、CORS 白名单等可以不重启调整。
// 监听配置文件所在目录而不是文件本身：编辑器保存多用临时文件替换，
// 直接监听文件会在第一次替换后失效。
func WatchConfig(configPath string, reloader ConfigReloader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		pending *time.Timer
	)

	reload := func() {
		newCfg, err := config.LoadConfig(dir)
		if err != nil {
			logger.Log.Error("Failed to reload config", zap.Error(err))
			return
		}
		reloader(newCfg)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(reloadDebounce, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
