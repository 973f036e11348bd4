package main

import (
	"context"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/rockpaperscissors/config"
	"github.com/wricardo/mcp-training/rockpaperscissors/transport/websocket"
)

// tunnel is a public listener together with the URL it is reachable on.
// ngrok.Tunnel satisfies it.
type tunnel interface {
	net.Listener
	URL() string
}

// openTunnel provisions an ngrok HTTP endpoint.
var openTunnel = func(ctx context.Context, cfg config.Ngrok) (tunnel, error) {
	var endpoint ngrokConfig.Tunnel
	if cfg.Domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
	} else {
		endpoint = ngrokConfig.HTTPEndpoint()
	}

	return ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(cfg.Token()))
}

// serveTunnel serves handler through an ngrok tunnel until ctx is cancelled.
// Tunnel problems are logged and never stop the local server.
func serveTunnel(ctx context.Context, cfg config.Ngrok, handler http.Handler, logger *zap.Logger) {
	if cfg.Token() == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel", zap.String("domain", cfg.Domain))
	tun, err := openTunnel(ctx, cfg)
	if err != nil {
		logger.Error("start ngrok tunnel", zap.Error(err))
		return
	}

	publicURL := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("websocket", websocketURL(publicURL)+"/"),
		zap.String("api", publicURL+"/api"),
	)

	// Serve closes the tunnel on shutdown.
	if err := websocket.Serve(ctx, tun, handler, logger); err != nil {
		logger.Error("ngrok server", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// websocketURL maps an http(s) URL to its ws(s) form.
func websocketURL(httpURL string) string {
	switch {
	case strings.HasPrefix(httpURL, "https://"):
		return "wss://" + strings.TrimPrefix(httpURL, "https://")
	case strings.HasPrefix(httpURL, "http://"):
		return "ws://" + strings.TrimPrefix(httpURL, "http://")
	}
	return httpURL
}
