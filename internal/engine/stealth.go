package engine

import (
	"fmt"
	"log/slog"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
)

// Re-export stealth types and functions for engine consumers.
type BrowserClient = stealth.BrowserClient

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }

// NewBrowserClient builds the Chrome-fingerprinted client used for YouTube.
// When webshareKey is set, requests are routed through a Webshare proxy pool;
// a pool that fails to initialize is logged and skipped.
func NewBrowserClient(timeoutSeconds int, webshareKey string) (*BrowserClient, error) {
	var opts []stealth.ClientOption
	opts = append(opts, stealth.WithTimeout(timeoutSeconds))

	if webshareKey != "" {
		pool, err := proxypool.NewWebshare(webshareKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}
	return bc, nil
}
