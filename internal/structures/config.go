package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type TimelineConfig struct {
	PageLimit     int           `yaml:"pageLimit" validate:"required|min:1"`
	AboveFold     int           `yaml:"aboveFold" validate:"required|min:1"`
	SourceTimeout time.Duration `yaml:"sourceTimeout" validate:"required|min:1"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
	Key     string        `yaml:"key"`
}

type StoreConfig struct {
	Driver    string `yaml:"driver" validate:"required|in:file,sqlite,redis,memory"`
	Dir       string `yaml:"dir"`
	DSN       string `yaml:"dsn"`
	RedisAddr string `yaml:"redisAddr"`
}

type BackendConfig struct {
	DatabaseURL string `yaml:"databaseURL" validate:"required"`
	MaxConns    int32  `yaml:"maxConns"`
}

type ChangeFeedConfig struct {
	Transport      string        `yaml:"transport" validate:"required|in:websocket,nats,none"`
	URL            string        `yaml:"url"`
	SubjectPrefix  string        `yaml:"subjectPrefix"`
	QuietPeriod    time.Duration `yaml:"quietPeriod"`
	Cooldown       time.Duration `yaml:"cooldown"`
	ReconnectDelay time.Duration `yaml:"reconnectDelay"`
}

type NotifyConfig struct {
	Transport string `yaml:"transport" validate:"required|in:nats,log"`
	URL       string `yaml:"url"`
	Subject   string `yaml:"subject"`
}

type SchedulerConfig struct {
	RefreshInterval time.Duration `yaml:"refreshInterval"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName    string
	Debug      bool
	Path       string
	WebServer  Server           `yaml:"webServer"`
	Logger     LoggerConfig     `yaml:"logger"`
	Timeline   TimelineConfig   `yaml:"timeline"`
	Cache      CacheConfig      `yaml:"cache"`
	Store      StoreConfig      `yaml:"store"`
	Backend    BackendConfig    `yaml:"backend"`
	ChangeFeed ChangeFeedConfig `yaml:"changeFeed"`
	Notify     NotifyConfig     `yaml:"notify"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}
