package config

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Data       DataConfig       `yaml:"data"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer"`
	Diagram    DiagramConfig    `yaml:"diagram"`
	Confluence ConfluenceConfig `yaml:"confluence"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type DataConfig struct {
	Dir     string `yaml:"dir"`
	RepoDir string `yaml:"repo_dir"`
}

type AnalyzerConfig struct {
	// 并发解析 Java 源文件的工作协程数
	Workers int `yaml:"workers"`
	// 深度框架检测时最多读取的 Java 文件数
	MaxProbeFiles int `yaml:"max_probe_files"`
}

type DiagramConfig struct {
	// PlantUML 在线渲染服务地址
	ServerURL string `yaml:"server_url"`
}

type ConfluenceConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	APIToken string `yaml:"api_token"`
	SpaceKey string `yaml:"space_key"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

func loadConfig() *Config {
	config := &Config{
		Server: ServerConfig{
			Port: "8000",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/app.db",
		},
		Data: DataConfig{
			Dir:     "./data",
			RepoDir: "./data/repos",
		},
		Analyzer: AnalyzerConfig{
			Workers:       4,
			MaxProbeFiles: 20,
		},
		Diagram: DiagramConfig{
			ServerURL: "http://www.plantuml.com/plantuml/img/",
		},
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		yaml.Unmarshal(data, config)
	}

	// 环境变量优先级高于配置文件
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}

	// 数据库环境变量
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	// 数据目录环境变量
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
	}
	if repoDir := os.Getenv("REPO_DIR"); repoDir != "" {
		config.Data.RepoDir = repoDir
	}

	if config.Data.RepoDir == "" {
		config.Data.RepoDir = filepath.Join(config.Data.Dir, "repos")
	}

	if serverURL := os.Getenv("PLANTUML_SERVER_URL"); serverURL != "" {
		config.Diagram.ServerURL = serverURL
	}

	// Confluence 默认发布配置，均可被请求体覆盖
	if baseURL := os.Getenv("CONFLUENCE_BASE_URL"); baseURL != "" {
		config.Confluence.BaseURL = baseURL
	}
	if username := os.Getenv("CONFLUENCE_USERNAME"); username != "" {
		config.Confluence.Username = username
	}
	if token := os.Getenv("CONFLUENCE_API_TOKEN"); token != "" {
		config.Confluence.APIToken = token
	}
	if spaceKey := os.Getenv("CONFLUENCE_SPACE_KEY"); spaceKey != "" {
		config.Confluence.SpaceKey = spaceKey
	}

	return config
}
