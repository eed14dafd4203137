package database

import (
	"fmt"
	"github.com/hdt3213/gkvs/config"
	"github.com/hdt3213/gkvs/interface/redis"
	"github.com/hdt3213/gkvs/lib/wildcard"
	"github.com/hdt3213/gkvs/redis/protocol"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

type configCmd struct {
	name      string
	operation string
	executor  ExecFunc
}

var configCmdTable = make(map[string]*configCmd)

// ExecConfigCommand implements CONFIG GET/SET/RESETSTAT/REWRITE by
// reflecting over config.ServerProperties, so adding a config field never
// requires touching this dispatcher.
func ExecConfigCommand(args [][]byte) redis.Reply {
	return execSubCommand(args)
}

func execSubCommand(args [][]byte) redis.Reply {
	if len(args) == 0 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'config' command")
	}
	subCommand := strings.ToUpper(string(args[0]))
	switch subCommand {
	case "GET":
		return getConfig(args[1:])
	case "SET":
		return setConfig(args[1:])
	case "RESETSTAT":
		// no per-command call counters are tracked, so there is nothing to
		// reset; accept the command the way real redis would after a reset.
		return &protocol.OkReply{}
	case "REWRITE":
		if err := config.Rewrite(); err != nil {
			return protocol.MakeErrReply(fmt.Sprintf("ERR Rewrite failed: %v", err))
		}
		return &protocol.OkReply{}
	default:
		return protocol.MakeErrReply(fmt.Sprintf("Unknown subcommand or wrong number of arguments for '%s'", subCommand))
	}
}
func getConfig(args [][]byte) redis.Reply {
	result := make([][]byte, 0)
	propertiesMap := getPropertiesMap()
	for _, arg := range args {
		param := string(arg)
		for key, value := range propertiesMap {
			pattern := wildcard.CompilePattern(param)
			isMatch := pattern.IsMatch(key)
			if isMatch {
				result = append(result, []byte(key), []byte(value))
			}
		}
	}
	return protocol.MakeMultiBulkReply(result)
}

func getPropertiesMap() map[string]string {
	PropertiesMap := map[string]string{}
	t := reflect.TypeOf(config.Properties)
	v := reflect.ValueOf(config.Properties)
	n := t.Elem().NumField()
	for i := 0; i < n; i++ {
		field := t.Elem().Field(i)
		fieldVal := v.Elem().Field(i)
		key, ok := field.Tag.Lookup("cfg")
		if !ok || strings.TrimLeft(key, " ") == "" {
			key = field.Name
		}
		var value string
		switch fieldVal.Type().Kind() {
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
		}
		PropertiesMap[key] = value
	}
	return PropertiesMap
}

func setConfig(args [][]byte) redis.Reply {
	if len(args)%2 != 0 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'config|set' command")
	}
	properties := config.CopyProperties()
	updateMap := make(map[string]string)
	mu := sync.Mutex{}
	for i := 0; i < len(args); i += 2 {
		parameter := string(args[i])
		value := string(args[i+1])
		mu.Lock()
		if _, ok := updateMap[parameter]; ok {
			errStr := fmt.Sprintf("ERR CONFIG SET failed (possibly related to argument '%s') - duplicate parameter", parameter)
			return protocol.MakeErrReply(errStr)
		}
		updateMap[parameter] = value
		mu.Unlock()
	}
	for parameter, value := range updateMap {
		err := updateConfig(properties, parameter, value)
		if err != nil {
			return err
		}
	}

	config.Properties = properties
	return &protocol.OkReply{}
}

func updateConfig(properties *config.ServerProperties, parameter string, value string) redis.Reply {
	t := reflect.TypeOf(properties)
	v := reflect.ValueOf(properties)
	n := t.Elem().NumField()
	var isExist bool
	for i := 0; i < n; i++ {
		field := t.Elem().Field(i)
		fieldVal := v.Elem().Field(i)
		key, ok := field.Tag.Lookup("cfg")
		if !ok || strings.TrimLeft(key, " ") == "" {
			key = field.Name
		}
		if key == parameter {
			isExist = true
			if config.IsImmutableConfig(parameter) {
				return protocol.MakeErrReply(fmt.Sprintf("ERR CONFIG SET failed (possibly related to argument '%s') - can't set immutable config", parameter))
			}
			switch fieldVal.Type().Kind() {
			case reflect.String:
				fieldVal.SetString(value)
			case reflect.Int, reflect.Int64:
				intValue, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					errStr := fmt.Sprintf("ERR CONFIG SET failed (possibly related to argument '%s') - argument couldn't be parsed into an integer", parameter)
					return protocol.MakeErrReply(errStr)
				}
				fieldVal.SetInt(intValue)
			case reflect.Bool:
				if "yes" == value {
					fieldVal.SetBool(true)
				} else if "no" == value {
					fieldVal.SetBool(false)
				} else {
					errStr := fmt.Sprintf("ERR CONFIG SET failed (possibly related to argument '%s') - argument couldn't be parsed into a bool", parameter)
					return protocol.MakeErrReply(errStr)
				}
			case reflect.Slice:
				if field.Type.Elem().Kind() == reflect.String {
					slice := strings.Split(value, ",")
					fieldVal.Set(reflect.ValueOf(slice))
				}
			}
			break
		}
	}
	if !isExist {
		return protocol.MakeErrReply(fmt.Sprintf("ERR Unknown option or number of arguments for CONFIG SET - '%s'", parameter))
	}
	return nil
}
