package config

import (
	"bufio"
	"errors"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/hdt3213/gkvs/lib/logger"
)

var errNoConfigFile = errors.New("the server is running without a config file")

// DefaultConfPath is loaded by Setup when no config file name is given and
// this file exists
const DefaultConfPath = "redis.conf"

// Properties holds global config properties
var Properties *ServerProperties

// ServerProperties defines global config properties, loaded from a config
// file in `key value` lines (redis.conf style) and overridable by
// environment variables named GKVS_<CFG_TAG_UPPERCASED>.
type ServerProperties struct {
	ListenAddr string `cfg:"listen_addr"`
	Databases  int    `cfg:"databases"`
	MaxClients int    `cfg:"max_clients"`

	AuthPassword string `cfg:"auth_password"`

	RDBPath         string `cfg:"rdb_path"`
	RDBAutoSaveSecs int    `cfg:"rdb_auto_save_secs"`

	MaxMemoryBytes int64  `cfg:"maxmemory_bytes"`
	MaxValueBytes  int64  `cfg:"maxvalue_bytes"`
	EvictionPolicy string `cfg:"maxmemory_policy"`

	SlowlogSlowerThanUs int64 `cfg:"slowlog_slower_than_us"`
	SlowlogMaxLen       int   `cfg:"slowlog_max_len"`

	// MetricsAddr is accepted and reported by CONFIG GET but never dialed;
	// the Prometheus exporter itself is out of scope.
	MetricsAddr string `cfg:"metrics_addr"`
}

func init() {
	// default config
	Properties = &ServerProperties{
		ListenAddr:          "0.0.0.0:6399",
		Databases:           16,
		MaxClients:          1000,
		MaxValueBytes:       512 * 1024 * 1024,
		EvictionPolicy:      "noeviction",
		SlowlogSlowerThanUs: 10000,
		SlowlogMaxLen:       128,
	}
}

func parse(src io.Reader) *ServerProperties {
	cfg := &ServerProperties{}
	*cfg = *Properties

	// read config file
	rawMap := make(map[string]string)
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > 0 && line[0] == '#' {
			continue
		}
		pivot := strings.IndexAny(line, " ")
		if pivot > 0 && pivot < len(line)-1 { // separator found
			key := line[0:pivot]
			value := strings.Trim(line[pivot+1:], " ")
			rawMap[strings.ToLower(key)] = value
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal(err)
	}

	applyValues(cfg, rawMap)
	applyEnv(cfg)
	return cfg
}

// applyEnv overrides whatever came from the config file with any matching
// GKVS_<CFG_TAG_UPPERCASED> environment variable, so a container can be
// configured without a mounted file.
func applyEnv(cfg *ServerProperties) {
	rawMap := make(map[string]string)
	t := reflect.TypeOf(cfg).Elem()
	for i := 0; i < t.NumField(); i++ {
		key, ok := t.Field(i).Tag.Lookup("cfg")
		if !ok {
			key = t.Field(i).Name
		}
		envKey := "GKVS_" + strings.ToUpper(key)
		if value, ok := os.LookupEnv(envKey); ok {
			rawMap[strings.ToLower(key)] = value
		}
	}
	applyValues(cfg, rawMap)
}

func applyValues(cfg *ServerProperties, rawMap map[string]string) {
	t := reflect.TypeOf(cfg)
	v := reflect.ValueOf(cfg)
	n := t.Elem().NumField()
	for i := 0; i < n; i++ {
		field := t.Elem().Field(i)
		fieldVal := v.Elem().Field(i)
		key, ok := field.Tag.Lookup("cfg")
		if !ok {
			key = field.Name
		}
		value, ok := rawMap[strings.ToLower(key)]
		if !ok {
			continue
		}
		// fill config
		switch field.Type.Kind() {
		case reflect.String:
			fieldVal.SetString(value)
		case reflect.Int, reflect.Int64:
			intValue, err := strconv.ParseInt(value, 10, 64)
			if err == nil {
				fieldVal.SetInt(intValue)
			}
		case reflect.Bool:
			fieldVal.SetBool(toBool(value))
		case reflect.Slice:
			if field.Type.Elem().Kind() == reflect.String {
				slice := strings.Split(value, ",")
				fieldVal.Set(reflect.ValueOf(slice))
			}
		}
	}
}

// configFilePath remembers where Properties was loaded from, so CONFIG
// REWRITE knows where to persist runtime edits made via CONFIG SET.
var configFilePath string

// Setup read config file and store properties into Properties
func Setup(configFilename string) {
	if configFilename == "" {
		if defaultConfigFileExists() {
			configFilename = DefaultConfPath
		} else {
			applyEnv(Properties)
			return
		}
	}
	file, err := os.Open(configFilename)
	if err != nil {
		panic(err)
	}
	defer file.Close()
	Properties = parse(file)
	configFilePath = configFilename
}

// Rewrite writes the current Properties back to the file Setup loaded
// them from, in the same `key value` line format, so edits made at
// runtime via CONFIG SET survive a restart. Returns an error if no config
// file was loaded (e.g. the process started from defaults/env only).
func Rewrite() error {
	if configFilePath == "" {
		return errNoConfigFile
	}
	var sb strings.Builder
	t := reflect.TypeOf(Properties).Elem()
	v := reflect.ValueOf(Properties).Elem()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key, ok := field.Tag.Lookup("cfg")
		if !ok {
			key = field.Name
		}
		fieldVal := v.Field(i)
		var value string
		switch field.Type.Kind() {
		case reflect.String:
			value = fieldVal.String()
		case reflect.Int, reflect.Int64:
			value = strconv.FormatInt(fieldVal.Int(), 10)
		case reflect.Bool:
			if fieldVal.Bool() {
				value = "yes"
			} else {
				value = "no"
			}
		case reflect.Slice:
			if field.Type.Elem().Kind() == reflect.String {
				value = strings.Join(fieldVal.Interface().([]string), ",")
			}
		default:
			continue
		}
		if value == "" {
			continue
		}
		sb.WriteString(key)
		sb.WriteByte(' ')
		sb.WriteString(value)
		sb.WriteByte('\n')
	}
	return os.WriteFile(configFilePath, []byte(sb.String()), 0644)
}

// GetTmpDir returns the directory used for transient work files (snapshot
// staging, etc).
func GetTmpDir() string {
	return "./tmp"
}

// immutableConfigKeys cannot be changed by CONFIG SET at runtime because
// they are fixed at process startup (listening socket, database count,
// snapshot path).
var immutableConfigKeys = map[string]bool{
	"listen_addr": true,
	"databases":   true,
	"rdb_path":    true,
}

// IsImmutableConfig reports whether parameter cannot be changed at runtime
// via CONFIG SET.
func IsImmutableConfig(parameter string) bool {
	return immutableConfigKeys[strings.ToLower(parameter)]
}

// CopyProperties returns a shallow copy of the current Properties, used by
// CONFIG SET to stage edits before committing them atomically.
func CopyProperties() *ServerProperties {
	cp := *Properties
	return &cp
}

func defaultConfigFileExists() bool {
	info, err := os.Stat(DefaultConfPath)
	return err == nil && !info.IsDir()
}

func toBool(s string) bool {
	ls := strings.ToLower(s)
	switch ls {
	case "true", "yes", "t", "y":
		return true
	default:
		return false
	}
}
