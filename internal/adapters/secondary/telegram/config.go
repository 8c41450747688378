package telegram

type Config struct {
	BotToken string `envconfig:"BOT_TOKEN"`
	APIURL   string `envconfig:"API_URL" default:"https://api.telegram.org"`
}

// Enabled без токена уведомления в чаты не отправляются
func (c *Config) Enabled() bool {
	return c.BotToken != ""
}
