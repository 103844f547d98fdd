package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bdobrica/gptbot/internal/gptbot/app"
	"github.com/bdobrica/gptbot/internal/gptbot/observability"
)

var runFlags struct {
	server     string
	port       int
	tls        bool
	channel    string
	nick       string
	encoding   string
	bufferSize int
	persona    string
	model      string
	db         string
	httpAddr   string
	logLevel   string
	logFormat  string
}

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect and serve the channel (the default command)",
		RunE:  runBot,
	}
	addRunFlags(cmd)
	RootCmd.AddCommand(cmd)
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&runFlags.server, "server", "", "IRC server host ($IRC_SERVER)")
	f.IntVar(&runFlags.port, "port", 0, "IRC server port ($IRC_PORT)")
	f.BoolVar(&runFlags.tls, "tls", false, "connect with TLS ($IRC_TLS)")
	f.StringVarP(&runFlags.channel, "channel", "c", "", "channel to join ($IRC_CHANNEL)")
	f.StringVarP(&runFlags.nick, "nick", "n", "", "nickname ($IRC_NICK)")
	f.StringVar(&runFlags.encoding, "encoding", "", "wire character encoding ($IRC_ENCODING)")
	f.IntVar(&runFlags.bufferSize, "buffer-size", 0, "per-sender history size ($GPTBOT_BUFFER_SIZE)")
	f.StringVar(&runFlags.persona, "persona", "", "persona YAML file ($GPTBOT_PERSONA_FILE)")
	f.StringVarP(&runFlags.model, "model", "m", "", "completion model ($OPENAI_MODEL)")
	f.StringVar(&runFlags.db, "db", "", "ledger database path ($DATABASE_PATH)")
	f.StringVar(&runFlags.httpAddr, "http-addr", "", "health/status/metrics listen address ($HTTP_ADDR)")
	f.StringVar(&runFlags.logLevel, "log-level", "", "debug, info, warn or error ($LOG_LEVEL)")
	f.StringVar(&runFlags.logFormat, "log-format", "", "text or json ($LOG_FORMAT)")
}

// loadConfig reads the environment and applies flags the user set.
func loadConfig(cmd *cobra.Command) (*app.Config, error) {
	cfg, err := app.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	secrets = []string{cfg.OpenAI.APIKey, cfg.IRC.Password}

	f := cmd.Flags()
	if f.Changed("server") {
		cfg.IRC.Server = runFlags.server
	}
	if f.Changed("port") {
		cfg.IRC.Port = runFlags.port
	}
	if f.Changed("tls") {
		cfg.IRC.TLS = runFlags.tls
	}
	if f.Changed("channel") {
		cfg.IRC.Channel = runFlags.channel
	}
	if f.Changed("nick") {
		cfg.IRC.Nick = runFlags.nick
	}
	if f.Changed("encoding") {
		cfg.IRC.Encoding = runFlags.encoding
	}
	if f.Changed("buffer-size") {
		cfg.BufferSize = runFlags.bufferSize
	}
	if f.Changed("persona") {
		cfg.PersonaFile = runFlags.persona
	}
	if f.Changed("model") {
		cfg.OpenAI.Model = runFlags.model
	}
	if f.Changed("db") {
		cfg.DatabasePath = runFlags.db
	}
	if f.Changed("http-addr") {
		cfg.HTTPAddr = runFlags.httpAddr
	}
	if f.Changed("log-level") {
		cfg.LogLevel = runFlags.logLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = runFlags.logFormat
	}
	return cfg, cfg.Validate()
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	observability.Setup(cfg.LogLevel, cfg.LogFormat)

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Stop()

	if err := a.Run(cmd.Context()); err != nil {
		slog.Error("gptbot stopped", "err", observability.RedactSecrets(err.Error(), secrets...))
		return err
	}
	return nil
}
