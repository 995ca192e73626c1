// Package config loads the song director server configuration.
//
// Values are resolved in order, later sources winning:
//
//  1. Built-in defaults (New)
//  2. An optional songdirector.json file
//  3. SONG_DIRECTOR_* environment variables
//  4. Command-line flags (applied by cmd/songdirector)
//
// Example songdirector.json:
//
//	{
//	  "address": "0.0.0.0:3000",
//	  "staticDir": "public",
//	  "logLevel": "debug",
//	  "pingInterval": "15s"
//	}
package config
