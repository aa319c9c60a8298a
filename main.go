// @title Adaptive Tutor API
// @version 1.0
// @description 自适应练习辅导服务：选题、作答评估、掌握度估计和学习进度。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"adaptive_tutor/internal/app"
	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/repository"
	"adaptive_tutor/internal/service"
	"adaptive_tutor/pkg/database"
	"adaptive_tutor/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configDir string
	migrate   bool
	output    string
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.InitLogger(cfg)
	return cfg, nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// 启动时强制执行数据库迁移（即使是 release 模式）
	cfg.ForceMigrate = migrate || cfg.Server.Mode != "release"

	application, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	application.Run()
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adaptive-tutor",
		Short:         "Adaptive exercise tutor backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.PersistentFlags().StringVar(&configDir, "config", "configs", "目录，包含 config.yaml")
	root.Flags().BoolVar(&migrate, "migrate", false, "启动时强制执行数据库迁移")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  serve,
	}
	serveCmd.Flags().BoolVar(&migrate, "migrate", false, "启动时强制执行数据库迁移")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Log.Sync()

			if _, err := database.InitDB(&cfg.Database, true); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Log.Info("数据库迁移完成")
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export-dataset",
		Short: "Export per-student competency features as a training CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Log.Sync()

			db, err := database.InitDB(&cfg.Database, false)
			if err != nil {
				return fmt.Errorf("initialize database: %w", err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			exporter := service.NewDatasetService(repository.NewAttemptRepository(db), cfg.Tutor)
			n, err := exporter.Export(cmd.Context(), w)
			if err != nil {
				return fmt.Errorf("export dataset: %w", err)
			}
			logger.Log.Info("Dataset exported", zap.Int("rows", n), zap.String("output", output))
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "-", "输出文件，- 表示标准输出")

	seedCmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Import students, baselines and the exercise catalogue from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Log.Sync()

			db, err := database.InitDB(&cfg.Database, true)
			if err != nil {
				return fmt.Errorf("initialize database: %w", err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = service.NewSeedService(db, repository.NewStudentRepository(db)).Import(cmd.Context(), f)
			return err
		},
	}

	root.AddCommand(serveCmd, migrateCmd, exportCmd, seedCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
