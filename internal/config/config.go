package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/viper"

	"github.com/mickys/blockbitsdev-sub000/internal/bylaws"
	"github.com/mickys/blockbitsdev-sub000/internal/funding"
	"github.com/mickys/blockbitsdev-sub000/internal/logger"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Campaign CampaignConfig `mapstructure:"campaign"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// CampaignConfig 筹款活动配置
type CampaignConfig struct {
	Name           string `mapstructure:"name"`            // 活动名称
	EntityAddress  string `mapstructure:"entity_address"`  // 应用实体地址
	PlatformWallet string `mapstructure:"platform_wallet"` // 平台钱包地址

	Token  TokenConfig   `mapstructure:"token"`  // 代币参数
	Bylaws BylawsConfig  `mapstructure:"bylaws"` // 章程
	Stages []StageConfig `mapstructure:"stages"` // 筹款阶段
}

// TokenConfig 代币参数
type TokenConfig struct {
	Name     string `mapstructure:"name"`
	Symbol   string `mapstructure:"symbol"`
	Decimals uint8  `mapstructure:"decimals"`
	Supply   string `mapstructure:"supply"` // 总供应量（最小单位，十进制字符串）
}

// BylawsConfig 章程配置
type BylawsConfig struct {
	GlobalSoftCap          string `mapstructure:"global_soft_cap"`           // 全局软顶（wei）
	GlobalHardCap          string `mapstructure:"global_hard_cap"`           // 全局硬顶（wei）
	CooldownPeriod         int64  `mapstructure:"cooldown_period"`           // 阶段间冷却（秒）
	NextPhasePriceIncrease int64  `mapstructure:"next_phase_price_increase"` // 下一阶段涨价（百分比）
	DevelopmentStart       int64  `mapstructure:"development_start"`         // 开发期开始（unix）
	MeetingDeadline        int64  `mapstructure:"meeting_deadline"`          // 里程碑会议时间设置期限（unix）
}

// StageConfig 单个筹款阶段配置
type StageConfig struct {
	Name                  string `mapstructure:"name"`
	Description           string `mapstructure:"description"`
	StartTime             int64  `mapstructure:"start_time"` // unix
	EndTime               int64  `mapstructure:"end_time"`   // unix
	AmountCapSoft         string `mapstructure:"amount_cap_soft"`
	AmountCapHard         string `mapstructure:"amount_cap_hard"`
	Methods               uint8  `mapstructure:"methods"` // 1 直接 / 2 里程碑 / 3 两者
	MinimumEntry          string `mapstructure:"minimum_entry"`
	StartParity           string `mapstructure:"start_parity"`
	UseParityFromPrevious bool   `mapstructure:"use_parity_from_previous"`
	TokenSharePercentage  uint8  `mapstructure:"token_share_percentage"`
}

type TaskConfig struct {
	Interval  int    `mapstructure:"interval"`   // 秒
	BatchSize uint64 `mapstructure:"batch_size"` // 每次结算扫描的金库数量上限
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/blockbits")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "blockbits")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("campaign.token.decimals", 18)
	viper.SetDefault("campaign.bylaws.cooldown_period", 86400)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("task.batch_size", 50)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}

// BuildBylaws 由配置构造章程存储，加载时校验所有键值
func (c CampaignConfig) BuildBylaws() (*bylaws.Store, error) {
	store := bylaws.NewStore()

	set := func(key bylaws.Key, raw string) error {
		v, err := parseAmount(raw)
		if err != nil {
			return fmt.Errorf("bylaw %s: %w", key, err)
		}
		return store.SetUint(key, v)
	}
	if err := set(bylaws.KeyGlobalSoftCap, c.Bylaws.GlobalSoftCap); err != nil {
		return nil, err
	}
	if err := set(bylaws.KeyGlobalHardCap, c.Bylaws.GlobalHardCap); err != nil {
		return nil, err
	}
	if err := store.SetUint(bylaws.KeyCooldownPeriod, big.NewInt(c.Bylaws.CooldownPeriod)); err != nil {
		return nil, err
	}
	if err := store.SetUint(bylaws.KeyNextPhasePriceIncrease, big.NewInt(c.Bylaws.NextPhasePriceIncrease)); err != nil {
		return nil, err
	}
	if err := store.SetUint(bylaws.KeyDevelopmentStart, big.NewInt(c.Bylaws.DevelopmentStart)); err != nil {
		return nil, err
	}
	if err := store.SetUint(bylaws.KeyMeetingTimeSetReq, big.NewInt(c.Bylaws.MeetingDeadline)); err != nil {
		return nil, err
	}
	if err := set(bylaws.KeyTokenSupply, c.Token.Supply); err != nil {
		return nil, err
	}
	return store, nil
}

// TokenSupply 代币总供应量
func (c CampaignConfig) TokenSupply() (*big.Int, error) {
	return parseAmount(c.Token.Supply)
}

// StageParams 阶段配置转引擎入参
func (s StageConfig) StageParams() (funding.StageParams, error) {
	capSoft, err := parseAmount(s.AmountCapSoft)
	if err != nil {
		return funding.StageParams{}, fmt.Errorf("stage %s soft cap: %w", s.Name, err)
	}
	capHard, err := parseAmount(s.AmountCapHard)
	if err != nil {
		return funding.StageParams{}, fmt.Errorf("stage %s hard cap: %w", s.Name, err)
	}
	minEntry, err := parseAmount(s.MinimumEntry)
	if err != nil {
		return funding.StageParams{}, fmt.Errorf("stage %s minimum entry: %w", s.Name, err)
	}
	parity, err := parseAmount(s.StartParity)
	if err != nil {
		return funding.StageParams{}, fmt.Errorf("stage %s start parity: %w", s.Name, err)
	}
	return funding.StageParams{
		Name:                  s.Name,
		Description:           s.Description,
		StartTime:             time.Unix(s.StartTime, 0).UTC(),
		EndTime:               time.Unix(s.EndTime, 0).UTC(),
		AmountCapSoft:         capSoft,
		AmountCapHard:         capHard,
		Methods:               funding.StageMethods(s.Methods),
		MinimumEntry:          minEntry,
		StartParity:           parity,
		UseParityFromPrevious: s.UseParityFromPrevious,
		TokenSharePercentage:  s.TokenSharePercentage,
	}, nil
}

// parseAmount 十进制字符串转 big.Int，空串视为 0
func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return v, nil
}
