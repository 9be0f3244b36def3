package config

import (
	"github.com/spf13/viper"
)

// Application constants
const (
	AppTitle   = "Sistema de Programa ColmaGo"
	AppVersion = "1.0.0"
)

// Domain table names used by the Supabase backend and the CSV fallback files
const (
	TablaClientes  = "clientes"
	TablaProductos = "productos"
	TablaCompras   = "compras"
	TablaVentas    = "ventas"
	TablaEmpleados = "empleados"
)

// Global configuration variables
var (
	// SupabaseURL is the base URL of the Supabase project
	SupabaseURL string
	// SupabaseKey is the Supabase API key
	SupabaseKey string
	// BackupDir is the directory holding the per-table CSV fallback files
	BackupDir string
)

// Tablas returns the five domain table names in menu order.
func Tablas() []string {
	return []string{
		TablaClientes,
		TablaProductos,
		TablaCompras,
		TablaVentas,
		TablaEmpleados,
	}
}

// InitConfig initializes the global configuration from viper.
func InitConfig() {
	// Set default values
	viper.SetDefault("backupdir", "data_backup")

	// Get values from viper
	SupabaseURL = viper.GetString("supabase.url")
	SupabaseKey = viper.GetString("supabase.key")
	BackupDir = viper.GetString("backupdir")
}

// SetBackupDir overrides the CSV backup directory.
func SetBackupDir(dir string) {
	BackupDir = dir
}
