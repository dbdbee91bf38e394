package common

import (
	"github.com/neuraltalk/chat-backend/internal/config"
	pkgHTTP "github.com/neuraltalk/chat-backend/pkg/http"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	return pkgHTTP.NewConnector(
		connCfg,
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
	)
}

// NewOpenAIClient builds a go-openai client on top of the shared transport chain.
// The SDK sets its own Authorization header from APIKey.
func NewOpenAIClient(cfg config.OpenAIConfig, logger *zap.Logger) *openai.Client {
	httpCfg := cfg.HTTPClientConfig
	httpCfg.Token = ""
	base := NewBaseConnector(httpCfg, logger)

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Url != "" {
		clientCfg.BaseURL = cfg.Url
	}
	clientCfg.HTTPClient = base.HTTPClient()

	return openai.NewClientWithConfig(clientCfg)
}
