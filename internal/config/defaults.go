package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:        "info",
			DispatchWorkers: 4,
			BusBuffer:       100,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		WhatsApp: WhatsAppConfig{
			APIBase:     "https://graph.facebook.com/v20.0",
			WebhookPath: "/webhook",
		},
		Flow: FlowConfig{
			BaseURL:        "http://localhost:8002/c/ex/channel",
			TimeoutSeconds: 30,
		},
		Orders: OrdersConfig{
			DBPath: "~/.flowbridge/orders.db",
		},
	}
}
