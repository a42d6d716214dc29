package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type AppConfig struct {
	DefaultLayout string `json:"default_layout"`
	Theme         string `json:"theme"`
	IntervalMS    int    `json:"interval_ms"`
}

var currentConfig AppConfig

func defaultConfig() AppConfig {
	return AppConfig{DefaultLayout: "default", Theme: "green", IntervalMS: 500}
}

func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".coretop", "config.json"), nil
}

func loadConfig() {
	path, err := configPath()
	if err != nil {
		currentConfig = defaultConfig()
		return
	}
	file, err := os.ReadFile(path)
	if err != nil {
		currentConfig = defaultConfig()
		return
	}
	currentConfig = defaultConfig()
	if err := json.Unmarshal(file, &currentConfig); err != nil {
		currentConfig = defaultConfig()
	}
	if currentConfig.IntervalMS <= 0 {
		currentConfig.IntervalMS = 500
	}
}

func saveConfig() {
	path, err := configPath()
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return
	}
	os.WriteFile(path, data, 0644)
}
