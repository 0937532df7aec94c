package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Watch はナビゲーションファイルの変更を監視し、変わるたびにmeshの領域とfallbackを読み込み直します。
// 読み込みに失敗した場合や領域が空の場合は前の領域のまま使い続けます。ctxがキャンセルされるまで戻りません。
func Watch(ctx context.Context, filename string, mesh *NavMesh) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("navigation: watch: %w", err)
	}
	defer w.Close()

	// エディタの保存はrenameになることがあるのでディレクトリごと監視する
	target := filepath.Clean(filename)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("navigation: watch %s: %w", filename, err)
	}

	// 保存は切り詰めと書き込みの複数イベントになるので、静かになってから読み込む
	debounce := time.NewTimer(reloadDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(reloadDebounce)
		case <-debounce.C:
			reload(ctx, filename, mesh)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "navmesh watcher error", "err", err)
		}
	}
}

func reload(ctx context.Context, filename string, mesh *NavMesh) {
	spec, err := Load(filename)
	if err != nil {
		slog.WarnContext(ctx, "navmesh reload failed, keeping previous areas", "err", err)
		return
	}
	if len(spec.Areas) == 0 {
		slog.WarnContext(ctx, "navmesh reload has no areas, keeping previous areas", "file", filename)
		return
	}
	mesh.Replace(spec.Areas)
	mesh.SetFallback(spec.Fallback)
	slog.InfoContext(ctx, "navmesh reloaded", "name", spec.Name, "areas", mesh.Len(), "fallback", spec.Fallback != nil)
}
