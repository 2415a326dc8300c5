package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
)

const defaultConfigRelPath = "configs/conf.yml"

var current atomic.Pointer[Config]

// Current 返回最近一次加载（或热更新）后的配置；未加载时返回默认值。
func Current() *Config {
	if c := current.Load(); c != nil {
		return c
	}
	d := Default()
	return &d
}

// Load 读取配置。
//
// 约定：
// 1) 传入 cfgName（相对/绝对路径）则优先使用；
// 2) 否则从当前目录开始向上查找 `configs/conf.yml`；
// 3) 环境变量 BOOKSHELF_<SECTION>_<KEY> 覆盖文件中的值。
func Load(cfgName string) (*Config, error) {
	path, err := resolvePath(cfgName)
	if err != nil {
		return nil, err
	}
	return load(path)
}

func resolvePath(cfgName string) (string, error) {
	curDir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if cfgName != "" {
		if filepath.IsAbs(cfgName) {
			return cfgName, nil
		}
		return filepath.Join(curDir, cfgName), nil
	}
	return findConfigUpward(curDir)
}

func findConfigUpward(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, defaultConfigRelPath)
		if fileExist(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("config file not exist, searched %s from: %s", defaultConfigRelPath, startDir)
		}
		dir = parent
	}
}

func joinHostPort(host string, port int) string {
	if host == "" {
		host = "0.0.0.0"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
