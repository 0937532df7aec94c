package handler

import (
	"fmt"
	"net/http"
)

// RoomStats はヘルスチェックで返すルームの状態です。
type RoomStats interface {
	NumSessions() int
}

// NewHealthHandler は稼働確認用のハンドラーを返します。roomがnilでなければ接続数も返します。
func NewHealthHandler(room RoomStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if room == nil {
			_, _ = w.Write([]byte("ok\n"))
			return
		}
		_, _ = fmt.Fprintf(w, "ok sessions=%d\n", room.NumSessions())
	}
}
