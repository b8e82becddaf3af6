package metrics

import (
	"context"
	"errors"
	"expvar"
	"net"
	"net/http"
	"net/http/pprof"
	"time"
)

var startedAt = time.Now()

func init() {
	// 与交易计数器一起出现在 /debug/vars，便于确认进程连续运行时长
	expvar.Publish("uptime_seconds", expvar.Func(func() interface{} {
		return int64(time.Since(startedAt).Seconds())
	}))
}

// debugMux 组装调试端点：/debug/vars 暴露交易计数器，
// /debug/pprof 剖析决策循环。显式注册，不碰 DefaultServeMux。
func debugMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// Start 阻塞式启动调试服务。只应监听 localhost 或内网地址。
func Start(listenAddr string) error {
	s := &http.Server{
		Addr:    listenAddr,
		Handler: debugMux(),
	}
	return s.ListenAndServe()
}

// StartAsync 非阻塞启动调试服务，ctx 结束时优雅关闭。
// 引擎经 ARB_PPROF_ADDR 环境变量按需开启。
func StartAsync(ctx context.Context, listenAddr string) (*http.Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, err
	}
	s := &http.Server{
		Addr:    listenAddr,
		Handler: debugMux(),
	}

	go func() {
		if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// 调试端点的失败不影响交易，调用方按需记录
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	return s, nil
}
