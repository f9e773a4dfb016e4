// Package config holds the recognised option set and the
// flat key=value property bag that carries resolved options through the
// rest of the driver, as a flat Properties map[string]string.
package config

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"
)

// Option keys recognised on the command line or in a -config file.
const (
	URL      = "url"
	User     = "user"
	Password = "password"
	Threads  = "threads"
	Time     = "time"
	Batch    = "batch"
	Rate     = "rate"
	Load     = "load"
	Report   = "report"
	Data     = "data"
	Iterate  = "iterate"
	SQL      = "sql"
	Params   = "params"
	ConfigFile = "config"
	Property = "property"
	Check    = "check"
	Help     = "help"
	LogLevel = "loglevel"
	MetricsAddr = "metrics-addr"
)

// Defaults for options that have one. url/user/password/rate/params/data
// have no default - they are either required or genuinely optional.
var Defaults = map[string]string{
	Threads:  "10",
	Time:     "1",
	Batch:    "1",
	Load:     "95",
	Report:   "1",
	Iterate:  "false",
	SQL:      "SELECT * FROM User.Teams WHERE year < ?{int,1910,2010}",
	Check:    "false",
	Help:     "false",
	LogLevel: "info",
}

// Recognised marks every option name ParseArgs will accept; unknown option
// names are a fatal input error.
var Recognised = map[string]bool{
	URL: true, User: true, Password: true, Threads: true, Time: true,
	Batch: true, Rate: true, Load: true, Report: true, Data: true,
	Iterate: true, SQL: true, Params: true, ConfigFile: true,
	Property: true, Check: true, Help: true, LogLevel: true, MetricsAddr: true,
}

// Properties is the resolved option bag: command-line and -property values,
// merged over -config file contents and static defaults.
type Properties map[string]string

func New() Properties {
	p := make(Properties)
	for k, v := range Defaults {
		p[k] = v
	}
	return p
}

func (p Properties) Get(key string) string {
	return p[key]
}

func (p Properties) GetDefault(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Properties) Set(key, value string) {
	p[key] = value
}

// Merge copies entries from other into p, without overwriting any key
// already present in p - "command-line wins" merge semantics.
func (p Properties) Merge(other Properties) {
	for k, v := range other {
		if _, exists := p[k]; !exists {
			p[k] = v
		}
	}
}

var kvLine = regexp.MustCompile(`^\s*([^=:\s]+)\s*[=:]\s*(.*)$`)

// LoadFile reads a -config file. Files named *.yml/*.yaml are parsed as a
// YAML mapping of string to string; anything else is parsed as flat
// key=value (or key:value) lines, one per line - '#' starts a comment,
// blank lines are skipped.
func LoadFile(path string) (Properties, error) {
	if strings.HasSuffix(strings.ToLower(path), ".yml") || strings.HasSuffix(strings.ToLower(path), ".yaml") {
		return loadYAML(path)
	}
	return loadFlat(path)
}

func loadYAML(path string) (Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := make(map[string]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing yaml config %s: %w", path, err)
	}
	p := make(Properties, len(raw))
	for k, v := range raw {
		p[k] = v
	}
	return p, nil
}

func loadFlat(path string) (Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := make(Properties)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := kvLine.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("malformed config line: %q", line)
		}
		p[m[1]] = m[2]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

var varRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveVariables resolves ${name} references against p itself, in a
// single pass with no recursion guarantee):
// a value that resolves to another ${...} reference is not re-resolved.
func ResolveVariables(p Properties) {
	for k, v := range p {
		if !strings.Contains(v, "${") {
			continue
		}
		resolved := varRef.ReplaceAllStringFunc(v, func(ref string) string {
			name := ref[2 : len(ref)-1]
			if val, ok := p[name]; ok {
				return val
			}
			return ref
		})
		p[k] = resolved
	}
}

// Dump prints the resolved property bag for -check.
func Dump(p Properties) {
	fmt.Println("***************** properties *****************")
	for k, v := range p {
		fmt.Printf("%q=%q\n", k, v)
	}
	fmt.Println("**********************************************")
}
