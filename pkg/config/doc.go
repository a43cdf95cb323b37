// Package config fills configuration structs from environment variables.
//
// Fields are declared with caarlos0/env tags. Before parsing, Load reads a
// .env file (or the files passed explicitly) with joho/godotenv; variables
// already present in the process environment win over file values.
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":3000"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
package config
