package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configName is the base name (without extension) viper searches for.
const configName = "email_digest"

// MailConfig holds the IMAP mailbox settings.
type MailConfig struct {
	Address  string `mapstructure:"address" yaml:"address"`
	Password string `mapstructure:"password" yaml:"password"`
	Server   string `mapstructure:"server" yaml:"server"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`

	// LookbackDays is how many days back the SINCE search reaches.
	LookbackDays int `mapstructure:"lookback_days" yaml:"lookback_days"`

	// AllowedSenders are substrings a sender address must contain to be kept.
	AllowedSenders []string `mapstructure:"allowed_senders" yaml:"allowed_senders"`

	// MaxPartDepth caps how deep the MIME tree walk descends.
	MaxPartDepth int           `mapstructure:"max_part_depth" yaml:"max_part_depth"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// GenerationConfig holds the chat-completion endpoint settings.
type GenerationConfig struct {
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Model       string        `mapstructure:"model" yaml:"model"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	Prompt      string        `mapstructure:"prompt" yaml:"prompt"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// StoreConfig holds the event database settings.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`

	// FieldPolicy is "default" or "reject" and controls how events with
	// missing or non-string fields are handled.
	FieldPolicy string `mapstructure:"field_policy" yaml:"field_policy"`
}

// RenderConfig holds the HTML announcement settings.
type RenderConfig struct {
	TemplatePath   string `mapstructure:"template_path" yaml:"template_path"`
	OutputDir      string `mapstructure:"output_dir" yaml:"output_dir"`
	StartMarker    string `mapstructure:"start_marker" yaml:"start_marker"`
	EndMarker      string `mapstructure:"end_marker" yaml:"end_marker"`
	SequenceMarker string `mapstructure:"sequence_marker" yaml:"sequence_marker"`

	// LegacyFallback enables literal replacement of the historical sample
	// block for templates that carry no markers.
	LegacyFallback bool `mapstructure:"legacy_fallback" yaml:"legacy_fallback"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration. It is built once at
// startup and passed by value to every component.
type AppConfig struct {
	Mail       MailConfig       `mapstructure:"mail" yaml:"mail"`
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Render     RenderConfig     `mapstructure:"render" yaml:"render"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// Path is an explicit config file. When empty the default search
	// locations are used.
	Path string

	// Flags are command-line flags whose values override every other
	// source when set.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"date":         "mail.lookback_days",
	"mail-address": "mail.address",
	"mail-pwd":     "mail.password",
	"mail-server":  "mail.server",
	"api-key":      "generation.api_key",
	"model":        "generation.model",
	"max-tokens":   "generation.max_tokens",
	"temperature":  "generation.temperature",
	"db-path":      "store.path",
	"template":     "render.template_path",
	"log-level":    "log.level",
}

// envKeys maps configuration keys to the environment variables that have
// historically carried them.
var envKeys = map[string]string{
	"generation.api_key":   "DEEPSEEK_API_KEY",
	"mail.address":         "MAIL_ADDRESS",
	"mail.password":        "MAIL_PASSWORD",
	"store.path":           "PATH_TO_DB",
	"render.template_path": "TEMPLATE_PATH",
}

// DefaultConfigDirs returns the directories searched for the config file,
// in priority order.
func DefaultConfigDirs() []string {
	dirs := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, configName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", configName))
	}
	return dirs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mail.server", "mails.tsinghua.edu.cn")
	v.SetDefault("mail.port", 993)
	v.SetDefault("mail.mailbox", "INBOX")
	v.SetDefault("mail.lookback_days", 1)
	v.SetDefault("mail.allowed_senders", []string{"mail.tsinghua", "mails.tsinghua"})
	v.SetDefault("mail.max_part_depth", 32)
	v.SetDefault("mail.timeout", 2*time.Minute)

	v.SetDefault("generation.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("generation.model", "deepseek-chat")
	v.SetDefault("generation.max_tokens", 1024)
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.prompt", DefaultPrompt)
	v.SetDefault("generation.timeout", 2*time.Minute)

	v.SetDefault("store.path", "./events.db")
	v.SetDefault("store.field_policy", "default")

	v.SetDefault("render.template_path", "./template/wanyou_mini.html")
	v.SetDefault("render.output_dir", "./out")
	v.SetDefault("render.start_marker", "<!-- First Seminar -->")
	v.SetDefault("render.end_marker", "<!-- End of the first seminar -->")
	v.SetDefault("render.sequence_marker", "<!-- Events -->")
	v.SetDefault("render.legacy_fallback", false)

	v.SetDefault("log.level", "info")
}

// LoadConfig resolves the configuration from defaults, the config file
// (YAML or TOML), the environment and command-line flags, in increasing
// order of precedence.
func LoadConfig(opts LoadOptions) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
	} else {
		v.SetConfigName(configName)
		for _, dir := range DefaultConfigDirs() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		switch {
		case errors.As(err, &notFound):
		case errors.As(err, &pathErr) && opts.Path == "":
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("DIGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envKeys {
		if err := v.BindEnv(key, env, "DIGEST_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			return nil, fmt.Errorf("binding env %s: %w", env, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag --%s: %w", name, err)
			}
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// MissingError lists configuration keys a command needs but did not get.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing configuration: %s", strings.Join(e.Keys, ", "))
}

// ValidateQuery checks the settings needed to fetch, summarize and store.
func (c *AppConfig) ValidateQuery() error {
	var missing []string
	if c.Mail.Address == "" {
		missing = append(missing, "mail.address (MAIL_ADDRESS)")
	}
	if c.Mail.Password == "" {
		missing = append(missing, "mail.password (MAIL_PASSWORD)")
	}
	if c.Mail.Server == "" {
		missing = append(missing, "mail.server")
	}
	if c.Generation.APIKey == "" {
		missing = append(missing, "generation.api_key (DEEPSEEK_API_KEY)")
	}
	if err := c.ValidateStore(); err != nil {
		var m *MissingError
		if errors.As(err, &m) {
			missing = append(missing, m.Keys...)
		} else {
			return err
		}
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}

// ValidateStore checks the settings needed to open the event database.
func (c *AppConfig) ValidateStore() error {
	if c.Store.Path == "" {
		return &MissingError{Keys: []string{"store.path (PATH_TO_DB)"}}
	}
	switch c.Store.FieldPolicy {
	case "default", "reject":
	default:
		return fmt.Errorf("store.field_policy must be \"default\" or \"reject\", got %q", c.Store.FieldPolicy)
	}
	return nil
}

// DefaultPrompt is the generation prompt used when none is configured.
// {emails_input} is replaced with the formatted messages.
const DefaultPrompt = `input = {emails_input}

任务：分析一系列会议邀请邮件并提取关键信息。

输出格式：纯JSON数组，每个活动对应一个JSON对象，不要包含markdown代码块或任何额外说明。

必须包含的字段（全部为字符串）：
- sender: 发件人邮箱
- event: 会议或活动标题
- time_begin: 活动开始时间（格式：YYYY年MM月DD日 HH时MM分）
- time_end: 活动结束时间（格式：YYYY年MM月DD日 HH时MM分）
- position: 活动地点
- speaker_name: 主讲人姓名
- speaker_title: 主讲人头衔（例如：北京大学教授）
- abstract: 活动内容概要，包括主要议题、参会嘉宾和重要信息。若为学术报告，需概括研究成果。

重要提示：
1. 只输出纯JSON，不包含任何其他文本或格式标记
2. 所有输出必须使用中文，除非输入中包含英文或其他语言
3. 仔细核对日期信息，特别是年份的准确性
4. 若输入为空，则输出空数组[]`
