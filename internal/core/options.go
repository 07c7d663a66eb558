package core

import (
	"fmt"
	"io/ioutil"
	"log"
	"strings"

	"github.com/fatih/camelcase"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// ConfigurationOptionType represents the possible types of a ConfigurationOption's value.
type ConfigurationOptionType int

const (
	// BoolConfigurationOption reflects the boolean value type.
	BoolConfigurationOption ConfigurationOptionType = iota
	// IntConfigurationOption reflects the integer value type.
	IntConfigurationOption
	// StringConfigurationOption reflects the string value type.
	StringConfigurationOption
	// PathConfigurationOption reflects the file system path value type.
	PathConfigurationOption
)

// String() returns an empty string for the boolean type, "int" for integers and "string" for
// strings. It is used in the command line interface to show the argument's type.
func (opt ConfigurationOptionType) String() string {
	switch opt {
	case BoolConfigurationOption:
		return ""
	case IntConfigurationOption:
		return "int"
	case StringConfigurationOption:
		return "string"
	case PathConfigurationOption:
		return "path"
	}
	log.Panicf("Invalid ConfigurationOptionType value %d", opt)
	return ""
}

// ConfigurationOption describes a single tunable of a command.
type ConfigurationOption struct {
	// Name identifies the configuration option in facts.
	Name string
	// Description represents the help text about the configuration option.
	Description string
	// Flag corresponds to the CLI token with "--" prepended. Derived from Name when empty.
	Flag string
	// Type specifies the kind of the configuration option's value.
	Type ConfigurationOptionType
	// Default is the initial value of the configuration option.
	Default interface{}
}

// FormatDefault converts the default value of ConfigurationOption to string.
func (opt ConfigurationOption) FormatDefault() string {
	if opt.Type != StringConfigurationOption && opt.Type != PathConfigurationOption {
		return fmt.Sprint(opt.Default)
	}
	return fmt.Sprintf("\"%s\"", opt.Default)
}

// FlagName returns Flag or, when it is empty, the dash-lower-case form of the last
// dot-separated component of Name: "Stress.KeySpace" becomes "key-space".
func (opt ConfigurationOption) FlagName() string {
	if opt.Flag != "" {
		return opt.Flag
	}
	name := opt.Name
	if pos := strings.LastIndexByte(name, '.'); pos >= 0 {
		name = name[pos+1:]
	}
	parts := camelcase.Split(name)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, "-")
}

// Facts is the merged configuration: option names mapped to their typed values.
type Facts map[string]interface{}

// Options is the set of configuration options registered on a FlagSet.
type Options struct {
	opts    []ConfigurationOption
	values  map[string]interface{}
	flagSet *pflag.FlagSet
}

// AddFlags registers every option on the flag set. Call Resolve() after parsing.
func AddFlags(flagSet *pflag.FlagSet, opts ...ConfigurationOption) *Options {
	options := &Options{opts: opts, values: map[string]interface{}{}, flagSet: flagSet}
	for _, opt := range opts {
		flag := opt.FlagName()
		var ptr interface{}
		switch opt.Type {
		case BoolConfigurationOption:
			ptr = flagSet.Bool(flag, opt.Default.(bool), opt.Description)
		case IntConfigurationOption:
			ptr = flagSet.Int(flag, opt.Default.(int), opt.Description)
		case StringConfigurationOption, PathConfigurationOption:
			ptr = flagSet.String(flag, opt.Default.(string), opt.Description)
		default:
			log.Panicf("Invalid ConfigurationOptionType value %d", opt.Type)
		}
		options.values[opt.Name] = ptr
	}
	return options
}

// LoadConfig reads a YAML mapping from flag names to values. "~" in the path is expanded.
func LoadConfig(path string) (map[string]interface{}, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot expand %s", path)
	}
	data, err := ioutil.ReadFile(expanded)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", expanded)
	}
	config := map[string]interface{}{}
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "cannot parse %s", expanded)
	}
	return config, nil
}

// Resolve merges the parsed flags with the config file values (may be nil).
// Flags explicitly set on the command line win over the file, the file wins over the defaults.
func (options *Options) Resolve(config map[string]interface{}) (Facts, error) {
	facts := Facts{}
	known := map[string]bool{}
	for _, opt := range options.opts {
		flag := opt.FlagName()
		known[flag] = true
		value := deref(options.values[opt.Name])
		if fileValue, exists := config[flag]; exists && !options.flagSet.Changed(flag) {
			converted, err := convert(opt, fileValue)
			if err != nil {
				return nil, errors.Wrapf(err, "config option %s", flag)
			}
			value = converted
		}
		if opt.Type == PathConfigurationOption && value.(string) != "" {
			expanded, err := homedir.Expand(value.(string))
			if err != nil {
				return nil, errors.Wrapf(err, "config option %s", flag)
			}
			value = expanded
		}
		facts[opt.Name] = value
	}
	for key := range config {
		if !known[key] {
			return nil, errors.Errorf("unknown config option %s", key)
		}
	}
	return facts, nil
}

func deref(ptr interface{}) interface{} {
	switch val := ptr.(type) {
	case *bool:
		return *val
	case *int:
		return *val
	case *string:
		return *val
	}
	log.Panicf("unsupported flag value type %T", ptr)
	return nil
}

func convert(opt ConfigurationOption, value interface{}) (interface{}, error) {
	switch opt.Type {
	case BoolConfigurationOption:
		if val, ok := value.(bool); ok {
			return val, nil
		}
	case IntConfigurationOption:
		if val, ok := value.(int); ok {
			return val, nil
		}
	case StringConfigurationOption, PathConfigurationOption:
		switch val := value.(type) {
		case string:
			return val, nil
		case int, float64:
			return fmt.Sprint(val), nil
		}
	}
	return nil, errors.Errorf("expected %s value, got %T", typeName(opt.Type), value)
}

func typeName(t ConfigurationOptionType) string {
	if t == BoolConfigurationOption {
		return "bool"
	}
	return t.String()
}

// Section extracts the nested mapping stored under name, e.g. the "stress:" block
// of the config file. A missing section yields nil.
func Section(config map[string]interface{}, name string) (map[string]interface{}, error) {
	raw, exists := config[name]
	if !exists || raw == nil {
		return nil, nil
	}
	nested, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("config section %s must be a mapping, got %T", name, raw)
	}
	return nested, nil
}
