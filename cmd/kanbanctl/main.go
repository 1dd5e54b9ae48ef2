package main

import (
	"fmt"
	"kanban/internal/client"
	"kanban/internal/config"
	"kanban/internal/logger"
	"kanban/internal/remote"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var Version = "dev"

// cli - общее состояние команд: конфигурация и хранилище поверх API
type cli struct {
	configPath string
	baseURL    string
	output     string
	verbose    bool

	cfg     *config.Config
	store   *remote.Store
	closers []func()
}

func main() {
	if err := execute(newRootCmd()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute запускает команду и закрывает ресурсы при любом исходе.
// PersistentPostRun cobra не вызывает, если RunE вернул ошибку.
func execute(rootCmd *cobra.Command, c *cli) error {
	defer c.close()
	return rootCmd.Execute()
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "kanbanctl",
		Short:         "Клиент канбан-доски",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "путь к config.yml")
	flags.StringVar(&c.baseURL, "base-url", "", "адрес API (перекрывает client.base_url)")
	flags.StringVarP(&c.output, "output", "o", outputTable, "формат вывода: table, json, yaml")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "писать логи в stderr")

	rootCmd.AddCommand(tasksCmd(c))
	rootCmd.AddCommand(commentsCmd(c))
	rootCmd.AddCommand(boardCmd(c))

	return rootCmd, c
}

func (c *cli) setup() error {
	if err := checkOutput(c.output); err != nil {
		return err
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.baseURL != "" {
		cfg.Client.BaseURL = c.baseURL
	}
	c.cfg = cfg

	if c.verbose {
		if err := logger.Init(true, nil); err != nil {
			return fmt.Errorf("инициализация логгера: %w", err)
		}
		c.closers = append(c.closers, logger.Sync)
	}

	api, err := client.New(client.Options{
		BaseURL:          cfg.Client.BaseURL,
		Timeout:          cfg.Client.Timeout,
		MaxRetries:       cfg.Client.MaxRetries,
		InitialBackoff:   cfg.Client.InitialBackoff,
		MaxBackoff:       cfg.Client.MaxBackoff,
		BreakerFailures:  cfg.Client.BreakerFailures,
		BreakerOpenDelay: cfg.Client.BreakerOpenDelay,
	})
	if err != nil {
		return fmt.Errorf("клиент API: %w", err)
	}

	var cache remote.Cache = remote.NopCache{}
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		cache = remote.NewRedisCache(rdb, cfg.Cache.TTL, cfg.Cache.Prefix)
	}

	c.store = remote.NewStore(api, cache)
	return nil
}

func (c *cli) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
