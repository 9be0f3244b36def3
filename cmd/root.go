package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/colmago/colmago/internal/config"
	"github.com/colmago/colmago/internal/store"
	"github.com/colmago/colmago/internal/supabase"
)

// CLI represents the complete command structure for the colmago application
type CLI struct {
	// Global flags
	BackupDir string `help:"Directorio para los archivos CSV de respaldo (anula la configuración)"`

	Listar     ListarCmd     `cmd:"" help:"Listar registros de una tabla"`
	Agregar    AgregarCmd    `cmd:"" help:"Agregar un registro a una tabla"`
	Actualizar ActualizarCmd `cmd:"" help:"Actualizar campos de un registro"`
	Eliminar   EliminarCmd   `cmd:"" help:"Eliminar un registro por id"`
	Estado     EstadoCmd     `cmd:"" help:"Mostrar el estado de la conexión"`
	Exportar   ExportarCmd   `cmd:"" help:"Exportar todas las tablas a una base SQLite"`
	Semilla    SemillaCmd    `cmd:"" help:"Cargar registros desde un archivo YAML"`
	Menu       MenuCmd       `cmd:"" help:"Abrir el menú interactivo de tablas"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	// Create CLI instance
	var cli CLI

	// Parse command line with Kong
	ctx := kong.Parse(&cli,
		kong.Name("colmago"),
		kong.Description(config.AppTitle+" "+config.AppVersion),
		kong.UsageOnError(),
	)

	// Update global config based on parsed flags
	updateGlobalConfig(&cli)

	// The connection mode is decided here, once, for the process lifetime.
	st := newStore(context.Background())

	// Execute the selected command
	err := ctx.Run(st)
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("backupdir", "data_backup")
	viper.SetDefault("export.dbfile", "./colmago.db")

	// Enable environment variable support
	viper.AutomaticEnv()
	// Bind the Supabase credentials to their environment variables
	if err := viper.BindEnv("supabase.url", "SUPABASE_URL"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
	if err := viper.BindEnv("supabase.key", "SUPABASE_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Debug("Config file not found, using environment and defaults")
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	if cli.BackupDir != "" {
		config.SetBackupDir(cli.BackupDir)
	}
}

// newStore builds the record store, probing Supabase when credentials are
// configured. Construction never fails; without credentials or with an
// unreachable backend the store serves from local CSV files.
func newStore(ctx context.Context) *store.Store {
	var remote store.Remote
	if config.SupabaseURL != "" && config.SupabaseKey != "" {
		remote = supabase.New(config.SupabaseURL, config.SupabaseKey)
	}
	return store.New(ctx, store.Options{
		Remote:    remote,
		BackupDir: config.BackupDir,
	})
}

func initLogging() {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
