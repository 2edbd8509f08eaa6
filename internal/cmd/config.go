package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/veldra/helmsman/internal/configpaths"
)

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Generate a configuration template"`
}

// ConfigInit scaffolds a configuration file populated with the run command's
// defaults, derived from the command struct's kong tags.
type ConfigInit struct {
	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
	Output string `help:"Destination file path (defaults to the current directory)"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

func (c *ConfigInit) Run() error {
	root := buildMapFromStruct(reflect.TypeOf(Run{}))

	ext := c.Format
	if ext == "" {
		ext = "yaml"
	}
	dest := c.Output
	if dest == "" {
		dest = "helmsman." + ext
	}

	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}

	var data []byte
	var err error
	switch c.Format {
	case "json":
		data, err = json.MarshalIndent(root, "", "  ")
	case "toml":
		data, err = toml.Marshal(root)
	default:
		data, err = yaml.Marshal(root)
	}
	if err != nil {
		return fmt.Errorf("marshal config template: %w", err)
	}

	return os.WriteFile(dest, data, 0o644)
}

// buildMapFromStruct walks a kong command struct and collects each flag's
// default value under its flag name. Embedded structs with a prefix become
// nested sections.
func buildMapFromStruct(t reflect.Type) map[string]any {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := make(map[string]any)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" || f.Tag.Get("kong") == "-" {
			continue
		}
		if _, embedded := f.Tag.Lookup("embed"); embedded {
			sub := buildMapFromStruct(f.Type)
			if prefix := strings.TrimSuffix(f.Tag.Get("prefix"), "."); prefix != "" {
				out[prefix] = sub
			} else {
				for k, v := range sub {
					out[k] = v
				}
			}
			continue
		}
		name := f.Tag.Get("name")
		if name == "" {
			name = kebabCase(f.Name)
		}
		out[name] = defaultValue(f)
	}
	return out
}

func defaultValue(f reflect.StructField) any {
	def := f.Tag.Get("default")
	if f.Type == reflect.TypeOf(time.Duration(0)) {
		return def
	}
	switch f.Type.Kind() {
	case reflect.Bool:
		b, _ := strconv.ParseBool(def)
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.Atoi(def)
		return n
	case reflect.Float32, reflect.Float64:
		v, _ := strconv.ParseFloat(def, 64)
		return v
	default:
		return def
	}
}

func kebabCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
