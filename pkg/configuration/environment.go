package configuration

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/spendflow/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"spendflow"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// FinanceOptions are the treasury-core tunables read at call sites.
type FinanceOptions struct {
	// OTPTTL is the validity window of a payment OTP, measured from issuance.
	OTPTTL time.Duration `env:"FINANCE_OTP_TTL" envDefault:"5m"`
	// PaymentMaxRetries bounds automatic re-execution of a failed payment.
	PaymentMaxRetries int `env:"FINANCE_PAYMENT_MAX_RETRIES" envDefault:"3"`
	// ReorderMultiplier sizes an auto-replenishment request relative to the
	// fund's reorder level.
	ReorderMultiplier float64 `env:"FINANCE_REORDER_MULTIPLIER" envDefault:"2"`
	// NoFastTrackTier names the ceiling tier that never fast-tracks, no
	// matter how urgent the requisition is.
	NoFastTrackTier string `env:"FINANCE_NO_FASTTRACK_TIER" envDefault:"executive"`
	// Currency is the ISO code used for display amounts.
	Currency string `env:"FINANCE_CURRENCY" envDefault:"USD"`
}

type Configuration struct {
	Database DatabaseOptions
	Finance  FinanceOptions

	ServerPort       int    `env:"SERVER_PORT" envDefault:"8080"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogPath          string `env:"LOG_PATH" envDefault:""`
	RequestIDHeader  string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	RealIPHeader     string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`
	ActorIDHeader    string `env:"ACTOR_ID_HEADER" envDefault:"X-Actor-ID"`

	logger *logrus.Logger
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	if _, err := LoadEnv(envFiles); err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	c.Database.Opts = c.Database.ConnectionString()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	c.logger = logging.FileLogger(level, c.LogPath)
	return nil
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) SocketAddress() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
