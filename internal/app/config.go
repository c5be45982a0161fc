package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"
)

// Constants
const (
	DefaultDataFile       = "reservations.json"
	DefaultPort           = 3000
	DefaultAllowOrigin    = "*"
	DefaultSubscriberBuf  = 8
	DefaultWeekday        = time.Friday
	TmpPattern            = ".reservations-*.tmp"
	FilePermissions       = 0644
	ShutdownTimeout       = 10 * time.Second
	ReadHeaderTimeout     = 10 * time.Second
	MaxRequestBodyBytes   = 1 << 16
	DefaultAdminSecretEnv = "ADMIN_SECRET"

	// Error messages
	ErrInvalidDateFormat    = "Invalid date format (expected YYYY-MM-DD)"
	ErrWrongWeekday         = "The date must be a %s"
	ErrUnknownRouteType     = "Unknown route type (allowed: %s)"
	ErrInvalidName          = "Name must be between 1 and %d characters"
	ErrSlotTaken            = "This date and type are already reserved"
	ErrReservationNotFound  = "Reservation not found"
	ErrInvalidBody          = "Invalid request body"
	ErrInvalidFormat        = "Invalid format"
	ErrInvalidYear          = "Invalid year"
	ErrInternalServer       = "Internal server error"
	ErrFailedToSave         = "Failed to save reservations"
	ErrWrongPassword        = "Wrong password"
	ErrStreamingUnsupported = "Streaming unsupported"

	// ICS constants
	ICSProductID = "-//Winterberg//Routenreservierung//DE"
	ICSTimezone  = "Europe/Berlin"
	ICSDomain    = "reservierung.winterberg.de"
)

// DefaultRouteTypes are the two route types accepted when none are configured
var DefaultRouteTypes = []string{"A", "B"}

// Config is the runtime configuration of the reservation server
type Config struct {
	Port            int      `hcl:"port,optional" yaml:"port"`
	DataFile        string   `hcl:"data_file,optional" yaml:"data_file"`
	Weekday         string   `hcl:"weekday,optional" yaml:"weekday"`
	RouteTypes      []string `hcl:"route_types,optional" yaml:"route_types"`
	AdminSecretFile string   `hcl:"admin_secret_file,optional" yaml:"admin_secret_file"`
	AllowOrigin     string   `hcl:"allow_origin,optional" yaml:"allow_origin"`
	SubscriberBuf   int      `hcl:"subscriber_buffer,optional" yaml:"subscriber_buffer"`
	LogFormat       string   `hcl:"log_format,optional" yaml:"log_format"`
	Debug           bool     `hcl:"debug,optional" yaml:"debug"`

	// AdminSecret is only read from the environment, never from a file
	AdminSecret string `yaml:"-"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	dataFile := DefaultDataFile
	if cwd, err := os.Getwd(); err == nil {
		dataFile = filepath.Join(cwd, DefaultDataFile)
	}
	return Config{
		Port:          DefaultPort,
		DataFile:      dataFile,
		Weekday:       strings.ToLower(DefaultWeekday.String()),
		RouteTypes:    append([]string(nil), DefaultRouteTypes...),
		AllowOrigin:   DefaultAllowOrigin,
		SubscriberBuf: DefaultSubscriberBuf,
		LogFormat:     "text",
	}
}

// LoadConfigFile overlays the settings of an HCL (.hcl) or YAML (.yaml, .yml)
// file onto cfg. Unset fields keep their current value.
func LoadConfigFile(path string, cfg *Config) error {
	var file Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
			return fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file type %q (use .hcl or .yaml)", filepath.Ext(path))
	}

	cfg.merge(file)
	return nil
}

func (c *Config) merge(o Config) {
	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.DataFile != "" {
		c.DataFile = o.DataFile
	}
	if o.Weekday != "" {
		c.Weekday = o.Weekday
	}
	if len(o.RouteTypes) > 0 {
		c.RouteTypes = o.RouteTypes
	}
	if o.AdminSecretFile != "" {
		c.AdminSecretFile = o.AdminSecretFile
	}
	if o.AllowOrigin != "" {
		c.AllowOrigin = o.AllowOrigin
	}
	if o.SubscriberBuf != 0 {
		c.SubscriberBuf = o.SubscriberBuf
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
	if o.Debug {
		c.Debug = true
	}
}

// ApplyEnv overlays PORT, DATA_FILE, ADMIN_SECRET and ADMIN_SECRET_FILE
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := getenv("DATA_FILE"); v != "" {
		c.DataFile = v
	}
	if v := getenv(DefaultAdminSecretEnv); v != "" {
		c.AdminSecret = v
	}
	if v := getenv("ADMIN_SECRET_FILE"); v != "" {
		c.AdminSecretFile = v
	}
	return nil
}

// Validate checks the configuration and returns the derived rule set
func (c Config) Validate() (Rules, error) {
	if c.Port < 1 || c.Port > 65535 {
		return Rules{}, fmt.Errorf("port %d out of range", c.Port)
	}
	if strings.TrimSpace(c.DataFile) == "" {
		return Rules{}, fmt.Errorf("data file must not be empty")
	}
	if c.SubscriberBuf < 1 {
		return Rules{}, fmt.Errorf("subscriber buffer must be at least 1")
	}

	weekday, err := ParseWeekday(c.Weekday)
	if err != nil {
		return Rules{}, err
	}

	if len(c.RouteTypes) != 2 {
		return Rules{}, fmt.Errorf("exactly two route types are required, got %d", len(c.RouteTypes))
	}
	a, b := strings.TrimSpace(c.RouteTypes[0]), strings.TrimSpace(c.RouteTypes[1])
	if a == "" || b == "" || a == b {
		return Rules{}, fmt.Errorf("route types must be distinct and non-empty")
	}

	return Rules{Weekday: weekday, RouteTypes: []string{a, b}}, nil
}

// ParseWeekday parses an English weekday name such as "friday" or "Fri"
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
