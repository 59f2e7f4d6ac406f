package config

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/vmarchetti/library-console/pkg/logger"
)

type LibraryAPI struct {
	Host     string `yaml:"host" envconfig:"LIBRARY_API_HOST" default:"localhost"`
	Port     string `yaml:"port" envconfig:"LIBRARY_API_PORT" default:"8080"`
	BasePath string `yaml:"basePath" envconfig:"LIBRARY_API_BASE_PATH" default:"/api"`
}

func (a LibraryAPI) BaseURL() string {
	return "http://" + net.JoinHostPort(a.Host, a.Port) + a.BasePath
}

type HTTPClient struct {
	Timeout time.Duration `yaml:"timeout" envconfig:"HTTP_CLIENT_TIMEOUT" default:"1m"`
}

type StubHTTPServer struct {
	Host string `envconfig:"STUB_HTTP_HOST" default:"localhost"`
	Port string `envconfig:"STUB_HTTP_PORT" default:"8080"`
}

type Config struct {
	API    LibraryAPI     `yaml:"api"`
	Client HTTPClient     `yaml:"client"`
	Stub   StubHTTPServer `yaml:"stub"`
	Log    logger.Log     `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
