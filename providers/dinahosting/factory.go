package dinahosting

import (
	"gitlab.bluewillows.net/root/dinadns/pkg/httputil"
	"gitlab.bluewillows.net/root/dinadns/pkg/provider"
)

// Factory returns a provider.Factory for creating Dinahosting adapters.
// Credentials come from the factory config; Settings may carry ENDPOINT.
func Factory() provider.Factory {
	return func(cfg provider.FactoryConfig) (provider.API, error) {
		providerCfg := &Config{
			Username: cfg.Username,
			Password: cfg.Password,
			TTL:      cfg.TTL,
			Endpoint: cfg.Settings["ENDPOINT"],
		}
		if err := providerCfg.Validate(); err != nil {
			return nil, err
		}
		if providerCfg.Endpoint == "" {
			providerCfg.Endpoint = DefaultEndpoint
		}

		httpClient := httputil.NewClient(&httputil.ClientConfig{
			Timeout:   cfg.HTTP.Timeout,
			UserAgent: cfg.HTTP.UserAgent,
			Logger:    cfg.HTTP.Logger,
		})

		return New(providerCfg,
			WithProviderLogger(cfg.HTTP.Logger),
			WithClientOptions(WithHTTPClient(httpClient), WithLogger(cfg.HTTP.Logger)),
		)
	}
}
