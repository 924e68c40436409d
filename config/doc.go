// Package config loads messaging core settings from the environment, with
// optional .env file support.
package config
