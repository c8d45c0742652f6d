package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConf struct {
	Env            string `mapstructure:"env"`
	Port           int    `mapstructure:"port"`
	ShutdownSecond int    `mapstructure:"shutdown_seconds"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
	BodyLimitMB    int    `mapstructure:"body_limit_mb"`
}

type HTTPConf struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type IPFSConf struct {
	Provider   string `mapstructure:"provider"` // pinata | s3 | local
	GatewayURL string `mapstructure:"gateway_url"`
}

type PinataConf struct {
	JWT    string `mapstructure:"jwt"`
	APIURL string `mapstructure:"api_url"`
}

type S3Conf struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type ChainConf struct {
	Mode                  string `mapstructure:"mode"` // rpc | local
	RPCURL                string `mapstructure:"rpc_url"`
	ChainID               int64  `mapstructure:"chain_id"`
	PrivateKey            string `mapstructure:"private_key"`
	SPGNFTContract        string `mapstructure:"spg_nft_contract"`
	RegistrationWorkflows string `mapstructure:"registration_workflows"`
	IPAssetRegistry       string `mapstructure:"ip_asset_registry"`
	LicensingModule       string `mapstructure:"licensing_module"`
	PILTemplate           string `mapstructure:"pil_template"`
	ExplorerURL           string `mapstructure:"explorer_url"`
	ScanLimit             int    `mapstructure:"scan_limit"`
	TxTimeoutSeconds      int    `mapstructure:"tx_timeout_seconds"`
	ReadRetrySeconds      int    `mapstructure:"read_retry_seconds"`
}

type ABVConf struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	CompletionsPath string `mapstructure:"completions_path"`
	Model           string `mapstructure:"model"`
}

type MongoConf struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type RedisConf struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConf struct {
	PerMinute int `mapstructure:"per_minute"`
}

type EventsConf struct {
	Transport string   `mapstructure:"transport"` // kafka | nats | none
	Brokers   []string `mapstructure:"brokers"`
	Topic     string   `mapstructure:"topic"`
	NatsURL   string   `mapstructure:"nats_url"`
}

type JWTConf struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type ConsulConf struct {
	Addr        string `mapstructure:"addr"`
	ServiceName string `mapstructure:"service_name"`
	ServiceHost string `mapstructure:"service_host"`
}

type Config struct {
	App       AppConf       `mapstructure:"app"`
	HTTP      HTTPConf      `mapstructure:"http"`
	IPFS      IPFSConf      `mapstructure:"ipfs"`
	Pinata    PinataConf    `mapstructure:"pinata"`
	S3        S3Conf        `mapstructure:"s3"`
	Chain     ChainConf     `mapstructure:"chain"`
	ABV       ABVConf       `mapstructure:"abv"`
	Mongo     MongoConf     `mapstructure:"mongodb"`
	Redis     RedisConf     `mapstructure:"redis"`
	RateLimit RateLimitConf `mapstructure:"ratelimit"`
	Events    EventsConf    `mapstructure:"events"`
	JWT       JWTConf       `mapstructure:"jwt"`
	Consul    ConsulConf    `mapstructure:"consul"`
	Log       struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// derived
	ShutdownTimeout time.Duration
	HTTPTimeout     time.Duration
	TxTimeout       time.Duration
	ReadRetry       time.Duration
}

var defaults = map[string]any{
	"app.env":                      "development",
	"app.port":                     8080,
	"app.shutdown_seconds":         15,
	"app.allowed_origins":          "http://localhost:3000",
	"app.body_limit_mb":            100,
	"http.timeout_seconds":         60,
	"ipfs.provider":                "pinata",
	"ipfs.gateway_url":             "https://gateway.pinata.cloud",
	"pinata.jwt":                   "",
	"pinata.api_url":               "https://api.pinata.cloud",
	"s3.region":                    "us-east-1",
	"s3.bucket":                    "",
	"s3.endpoint":                  "https://s3.filebase.com",
	"s3.access_key":                "",
	"s3.secret_key":                "",
	"chain.mode":                   "rpc",
	"chain.rpc_url":                "https://aeneid.storyrpc.io",
	"chain.chain_id":               1315,
	"chain.private_key":            "",
	"chain.spg_nft_contract":       "",
	"chain.registration_workflows": "0xbe39E1C756e921BD25DF86e7AAa31106d1eb0424",
	"chain.ip_asset_registry":      "0x77319B4031e6eF1250907aa00018B8B1c67a244b",
	"chain.licensing_module":       "0x04fbd8a2e56dd85CFD5500A4A4DfA955B9f1dE6f",
	"chain.pil_template":           "0x2E896b0b2Fdb7457499B56AAaA4AE55BCB4Cd316",
	"chain.explorer_url":           "https://aeneid.explorer.story.foundation",
	"chain.scan_limit":             100,
	"chain.tx_timeout_seconds":     120,
	"chain.read_retry_seconds":     5,
	"abv.api_key":                  "",
	"abv.base_url":                 "https://api.abv.dev",
	"abv.completions_path":         "/v1/gateway/chat/completions",
	"abv.model":                    "gpt-4o",
	"mongodb.uri":                  "",
	"mongodb.database":             "chaincapture",
	"mongodb.collection":           "ip_assets",
	"redis.addr":                   "",
	"redis.password":               "",
	"redis.db":                     0,
	"ratelimit.per_minute":         30,
	"events.transport":             "none",
	"events.brokers":               []string{},
	"events.topic":                 "chaincapture.events",
	"events.nats_url":              "",
	"jwt.public_key_path":          "",
	"consul.addr":                  "",
	"consul.service_name":          "chaincapture",
	"consul.service_host":          "",
	"log.level":                    "",
}

// Load reads the yaml file at path (optional) and lets environment
// variables override any key, e.g. CHAIN_RPC_URL for chain.rpc_url.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *fs.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, err
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDerived()
	return &cfg, nil
}

func (c *Config) applyDerived() {
	if c.App.ShutdownSecond <= 0 {
		c.App.ShutdownSecond = 15
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = 60
	}
	if c.Chain.ScanLimit <= 0 {
		c.Chain.ScanLimit = 100
	}
	if c.Chain.TxTimeoutSeconds <= 0 {
		c.Chain.TxTimeoutSeconds = 120
	}
	c.ShutdownTimeout = time.Duration(c.App.ShutdownSecond) * time.Second
	c.HTTPTimeout = time.Duration(c.HTTP.TimeoutSeconds) * time.Second
	c.TxTimeout = time.Duration(c.Chain.TxTimeoutSeconds) * time.Second
	c.ReadRetry = time.Duration(c.Chain.ReadRetrySeconds) * time.Second
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
